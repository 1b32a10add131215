/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// fleetprint runs the scheduling engine against a demo fleet: it schedules a
// handful of representative orders, exercises cancellation and a manual
// refill, and dumps the resulting fleet status as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/printworks/fleetprint/pkg/errors"
	"github.com/printworks/fleetprint/pkg/fleet"
	"github.com/printworks/fleetprint/pkg/options"
	"github.com/printworks/fleetprint/pkg/scheduler"
	"github.com/printworks/fleetprint/pkg/scheduling"
	"github.com/printworks/fleetprint/pkg/test"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "fleetprint",
		Short:        "Printer fleet scheduling engine demo",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	}
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	log := lo.Must(zap.NewProduction())
	defer func() { _ = log.Sync() }()

	s, err := scheduler.NewScheduler(test.Fleet(), options.New(), scheduler.WithLogger(log))
	if err != nil {
		return fmt.Errorf("constructing scheduler, %w", err)
	}

	orders := []struct {
		name  string
		order fleet.Order
	}{
		{"simple bw+color", test.Order(map[fleet.PrintType]map[fleet.PaperKind]int{
			fleet.PrintTypeBW:    {fleet.PaperA4: 10},
			fleet.PrintTypeColor: {fleet.PaperA4: 5},
		})},
		{"mixed media", test.Order(map[fleet.PrintType]map[fleet.PaperKind]int{
			fleet.PrintTypeBW:         {fleet.PaperA4: 50},
			fleet.PrintTypeColor:      {fleet.PaperA4: 20},
			fleet.PrintTypeGlossy:     {fleet.PaperGlossy: 10},
			fleet.PrintTypePosterSize: {fleet.PaperPoster: 2},
		})},
		{"unsupported type", test.Order(map[fleet.PrintType]map[fleet.PaperKind]int{
			"holographic": {"Holo": 5},
		})},
	}

	var lastOrderID string
	for _, o := range orders {
		result, err := s.Schedule(ctx, scheduler.ScheduleRequest{
			Order:       o.order,
			PriorityMap: scheduling.PriorityMap(o.order.Types(), test.Fleet()),
		})
		if err != nil {
			if errors.IsNoCapablePrinter(err) {
				log.Warn("order rejected", zap.String("order", o.name), zap.Error(err))
				continue
			}
			return fmt.Errorf("scheduling %s order, %w", o.name, err)
		}
		lastOrderID = result.OrderID
	}

	if lastOrderID != "" && s.CancelOrder(ctx, lastOrderID) {
		log.Info("cancelled last order", zap.String("order-id", lastOrderID))
	}
	if err := s.UpdateResources(ctx, "P4", map[fleet.PaperKind]int{fleet.PaperPoster: 50}, nil); err != nil {
		return fmt.Errorf("refilling P4, %w", err)
	}

	status, err := s.SystemStatus(ctx)
	if err != nil {
		return fmt.Errorf("reading system status, %w", err)
	}
	out, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
