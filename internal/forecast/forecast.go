// Package forecast serves generated weather forecasts through a cache-aside
// record cache.
package forecast

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

const Days = 5

var Summaries = [...]string{
	"Freezing", "Bracing", "Chilly", "Cool", "Mild",
	"Warm", "Balmy", "Hot", "Sweltering", "Scorching",
}

type Forecast struct {
	Date         string `json:"date"` // yyyy-mm-dd
	TemperatureC int    `json:"temperatureC"`
	TemperatureF int    `json:"temperatureF"`
	Summary      string `json:"summary,omitempty"`
}

// Fahrenheit truncates toward zero.
func Fahrenheit(c int) int { return 32 + int(float64(c)/0.5556) }

// Generator produces random forecasts for the days after Now.
type Generator struct {
	Now  func() time.Time // nil => time.Now
	Rand *rand.Rand       // nil => package-level source

	mu sync.Mutex
}

func (g *Generator) intN(n int) int {
	if g.Rand == nil {
		return rand.IntN(n)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Rand.IntN(n)
}

// Generate matches recordcache.LoadFunc so it can be passed to GetOrLoad.
func (g *Generator) Generate(ctx context.Context) ([]Forecast, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	today := now()

	out := make([]Forecast, Days)
	for i := range out {
		c := g.intN(75) - 20 // [-20, 55)
		out[i] = Forecast{
			Date:         today.AddDate(0, 0, i+1).Format(time.DateOnly),
			TemperatureC: c,
			TemperatureF: Fahrenheit(c),
			Summary:      Summaries[g.intN(len(Summaries))],
		}
	}
	return out, nil
}
