// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/zintix-labs/matchlab"
	"github.com/zintix-labs/matchlab/optimizer"
	"github.com/zintix-labs/matchlab/sdk/core"
)

var (
	cfgPath   = flag.String("cfg", "", "path to level setting json")
	matchRate = flag.Float64("matchrate", 0.35, "target match rate (0 = ignore)")
	avgCells  = flag.Float64("cells", 0, "target avg cells per applied move (0 = ignore)")
	tolerance = flag.Float64("tol", 0.02, "stop when weighted error is below this")
	rounds    = flag.Int("rounds", 50000, "simulated moves per evaluation")
	seed      = flag.Int64("seed", 42, "seed for deterministic evaluation")
)

func main() {
	flag.Parse()
	if *cfgPath == "" {
		log.Fatal("-cfg is required")
	}
	raw, err := os.ReadFile(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	// 以設定檔所在目錄建 catalog，確保要調的關卡已註冊
	lab, err := matchlab.NewAuto(
		core.Default(),
		matchlab.Configs(os.DirFS(filepath.Dir(*cfgPath))),
	)
	if err != nil {
		log.Fatal(err)
	}
	tuner, err := optimizer.New(lab, raw,
		optimizer.Target{
			MatchRate: *matchRate,
			AvgCells:  *avgCells,
			Tolerance: *tolerance,
		},
		optimizer.Config{
			Rounds: *rounds,
			Seed:   *seed,
		})
	if err != nil {
		log.Fatal(err)
	}
	result, err := tuner.Run()
	if err != nil {
		log.Fatal(err)
	}
	out, _ := json.MarshalIndent(result.Best, "", "  ")
	fmt.Printf("trials=%d converged=%v\nbest: %s\n", len(result.History), result.Converged, out)
}
