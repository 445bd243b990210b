// Package report renders training metrics as self-contained HTML
// charts for the visualizer.
package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

var ErrNoData = errors.New("no episodes to chart")

// TrainingCurve renders the per-episode reward and step curves of a
// training run as an HTML page.
func TrainingCurve(w io.Writer, rewards []float64, steps []int) error {
	if len(rewards) == 0 {
		return ErrNoData
	}

	episodes := make([]string, len(rewards))
	for i := range rewards {
		episodes[i] = fmt.Sprintf("%d", i+1)
	}

	rewardLine := charts.NewLine()
	rewardLine.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: "Episode rewards",
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: "shine",
		}),
	)
	rewardItems := make([]opts.LineData, 0, len(rewards))
	for _, r := range rewards {
		rewardItems = append(rewardItems, opts.LineData{Value: r})
	}
	rewardLine.SetXAxis(episodes).AddSeries("total reward", rewardItems)

	stepLine := charts.NewLine()
	stepLine.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: "Episode steps",
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: "shine",
		}),
	)
	stepItems := make([]opts.LineData, 0, len(steps))
	for _, s := range steps {
		stepItems = append(stepItems, opts.LineData{Value: s})
	}
	stepLine.SetXAxis(episodes).AddSeries("steps", stepItems)

	page := components.NewPage()
	page.AddCharts(rewardLine, stepLine)
	return page.Render(w)
}
