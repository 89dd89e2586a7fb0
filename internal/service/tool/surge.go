// internal/service/tool/surge.go

package tool

import (
	"math"
	"time"
)

// NextSurgeScore returns the surge score after one more interaction.
//
// The score is an exponentially decayed interaction counter: the previous
// score is halved once per halfLife of idle time, then incremented for the
// new interaction. Within any window the score never decreases when
// interactions are added, and a burst of recent interactions outweighs the
// same number spread over days.
func NextSurgeScore(prev float64, lastInteraction *time.Time, now time.Time, halfLife time.Duration) float64 {
	decayed := prev
	if lastInteraction != nil {
		idle := now.Sub(*lastInteraction)
		if idle > 0 {
			decayed = prev * math.Exp2(-idle.Seconds()/halfLife.Seconds())
		}
	}
	return decayed + 1
}
