package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/aaronlmathis/hostwatch/internal/charts"
	"github.com/aaronlmathis/hostwatch/internal/dashboard"
	"github.com/aaronlmathis/hostwatch/internal/monitor"
	"github.com/aaronlmathis/hostwatch/internal/timeseries"
)

// demo replays ten minutes of a simulated host and prints the chart options
// the dashboard would receive.
func main() {
	fmt.Println("hostwatch - chart options demo")
	fmt.Println("==============================")

	config := timeseries.DefaultConfig()
	store := timeseries.NewMemStore(config)
	recorder := monitor.NewRecorder(zap.NewNop(), store)

	const clientID = "demo-host"
	start := time.Now().Add(-10 * time.Minute)
	samples := int((10 * time.Minute) / config.HiResStep)

	for i := 0; i < samples; i++ {
		phase := float64(i) / 20
		s := monitor.Sample{
			Timestamp:       start.Add(time.Duration(i) * config.HiResStep).UnixMilli(),
			CPUUsage:        0.35 + 0.25*math.Sin(phase),
			MemoryUsage:     9 + math.Sin(phase/3),
			DiskUsage:       210,
			NetworkUpload:   40 + 30*math.Abs(math.Sin(phase*2)),
			NetworkDownload: 300 + 200*math.Abs(math.Cos(phase)),
			DiskRead:        2 + math.Abs(math.Sin(phase)),
			DiskWrite:       1 + math.Abs(math.Cos(phase*3)),
			MemoryTotal:     16,
			DiskTotal:       512,
		}
		if err := recorder.Record(clientID, s); err != nil {
			fmt.Fprintf(os.Stderr, "record: %v\n", err)
			os.Exit(1)
		}
	}

	history := recorder.History(clientID, time.Time{}, timeseries.Hi)
	fmt.Printf("Recorded %d samples across %d series (%s of memory tracked)\n\n",
		history.Len(), len(store.Keys()), humanize.IBytes(uint64(history.Host.MemoryTotal*(1<<30))))

	service := dashboard.NewService(zap.NewNop(), charts.WithLocation(time.UTC), charts.WithServerLabels())
	for _, panel := range dashboard.Panels() {
		opt, err := service.Build(panel, history)
		if err != nil {
			fmt.Fprintf(os.Stderr, "build %s: %v\n", panel, err)
			os.Exit(1)
		}

		// Trim the data so the output stays readable
		opt.XAxis.Data = opt.XAxis.Data[len(opt.XAxis.Data)-3:]
		for i := range opt.Series {
			opt.Series[i].Data = opt.Series[i].Data[len(opt.Series[i].Data)-3:]
		}

		out, _ := json.MarshalIndent(opt, "", "  ")
		fmt.Printf("--- %s ---\n%s\n\n", panel, out)
	}
}
