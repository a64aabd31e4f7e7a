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

package spec

import "testing"

const minimalYAML = `
level_name: t_min
level_id: 1
board_setting:
  columns: 8
  rows: 8
  num_colors: 5
`

func TestGetLevelSettingByYAMLDefaults(t *testing.T) {
	ls, err := GetLevelSettingByYAML([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("parse minimal yaml: %v", err)
	}
	if ls.Board.ScreenSize != 64 {
		t.Fatalf("screen size = %d, want 64", ls.Board.ScreenSize)
	}
	// 未指定生成策略 → 均勻分佈，且權重補默認等權
	if ls.Generator.ColorGenType != ColorGenUniform {
		t.Fatalf("gen type = %v, want uniform", ls.Generator.ColorGenType)
	}
	if len(ls.Generator.ColorWeights) != 5 {
		t.Fatalf("default weights = %v, want 5 entries", ls.Generator.ColorWeights)
	}
	// 未指定連鎖護欄 → 默認值
	if ls.Rules.MaxCascades != DefaultMaxCascades {
		t.Fatalf("max cascades = %d, want %d", ls.Rules.MaxCascades, DefaultMaxCascades)
	}
	// 無遮罩 → 無洞
	if ls.Board.Holes() != nil {
		t.Fatalf("holes should be nil without mask")
	}
}

func TestGetLevelSettingByJSON(t *testing.T) {
	raw := []byte(`{
		"level_name": "t_json",
		"level_id": 2,
		"board_setting": {"columns": 4, "rows": 4, "num_colors": 4},
		"generator_setting": {"color_gen_type": "ColorGenByWeightLUT", "color_weights": [4, 3, 2, 1]},
		"rule_setting": {"max_cascades": 64}
	}`)
	ls, err := GetLevelSettingByJSON(raw)
	if err != nil {
		t.Fatalf("parse json: %v", err)
	}
	if ls.Generator.ColorGenType != ColorGenByWeightLUT {
		t.Fatalf("gen type = %v, want LUT", ls.Generator.ColorGenType)
	}
	if ls.Generator.ColorLUT == nil {
		t.Fatalf("LUT should be built on init")
	}
	if ls.Rules.MaxCascades != 64 {
		t.Fatalf("max cascades = %d, want 64", ls.Rules.MaxCascades)
	}
}

func TestHolesDerivedFromMask(t *testing.T) {
	ls, err := GetLevelSettingByYAML([]byte(`
level_name: t_mask
level_id: 3
board_setting:
  columns: 2
  rows: 2
  num_colors: 3
  mask: [1, 0, 0, 1]
`))
	if err != nil {
		t.Fatalf("parse yaml: %v", err)
	}
	holes := ls.Board.Holes()
	want := []uint8{0, 1, 1, 0}
	for i := range want {
		if holes[i] != want[i] {
			t.Fatalf("holes = %v, want %v", holes, want)
		}
	}
}

func TestInvalidSettings(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"empty name", `
level_id: 1
board_setting: {columns: 4, rows: 4, num_colors: 5}
`},
		{"too few colors", `
level_name: t_bad
level_id: 1
board_setting: {columns: 4, rows: 4, num_colors: 2}
`},
		{"board over index limit", `
level_name: t_bad
level_id: 1
board_setting: {columns: 200, rows: 200, num_colors: 5}
`},
		{"too many colors", `
level_name: t_bad
level_id: 1
board_setting: {columns: 4, rows: 4, num_colors: 128}
`},
		{"mask length mismatch", `
level_name: t_bad
level_id: 1
board_setting: {columns: 2, rows: 2, num_colors: 3, mask: [1, 1, 1]}
`},
		{"all holes", `
level_name: t_bad
level_id: 1
board_setting: {columns: 2, rows: 1, num_colors: 3, mask: [0, 0]}
`},
		{"weights length mismatch", `
level_name: t_bad
level_id: 1
board_setting: {columns: 4, rows: 4, num_colors: 5}
generator_setting: {color_weights: [1, 2]}
`},
		{"unknown gen type", `
level_name: t_bad
level_id: 1
board_setting: {columns: 4, rows: 4, num_colors: 5}
generator_setting: {color_gen_type: ColorGenBogus}
`},
		{"layer on hole", `
level_name: t_bad
level_id: 1
board_setting: {columns: 2, rows: 1, num_colors: 3, mask: [0, 1]}
layer_setting: {jelly: [1, 0]}
`},
		{"locked not binary", `
level_name: t_bad
level_id: 1
board_setting: {columns: 2, rows: 1, num_colors: 3}
layer_setting: {locked: [2, 0]}
`},
		{"negative cascade guard", `
level_name: t_bad
level_id: 1
board_setting: {columns: 4, rows: 4, num_colors: 5}
rule_setting: {max_cascades: -1}
`},
	}
	for _, tc := range cases {
		if _, err := GetLevelSettingByYAML([]byte(tc.yaml)); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}
