package spec

import (
	"fmt"

	"github.com/zintix-labs/matchlab/errs"
)

// LID 為關卡識別碼。
type LID int

// LevelSetting 包含啟動一面棋盤所需的所有高階設定。
type LevelSetting struct {
	LevelName string           `yaml:"level_name"        json:"level_name"`
	LevelID   LID              `yaml:"level_id"          json:"level_id"`
	Board     BoardSetting     `yaml:"board_setting"     json:"board_setting"`
	Generator GeneratorSetting `yaml:"generator_setting" json:"generator_setting"`
	Layers    LayerSetting     `yaml:"layer_setting"     json:"layer_setting"`
	Rules     RuleSetting      `yaml:"rule_setting"      json:"rule_setting"`
}

// init
func (ls *LevelSetting) init() error {
	if err := ls.Board.Init(); err != nil {
		return err
	}
	if err := ls.Generator.Init(ls.Board.NumColors); err != nil {
		return err
	}
	if err := ls.Layers.Init(ls.Board.ScreenSize, ls.Board.Mask); err != nil {
		return err
	}
	if err := ls.Rules.Init(); err != nil {
		return err
	}
	return ls.valid()
}

// valid 執行最基本的設定檔檢查，如需更多驗證可在此擴充。
func (ls *LevelSetting) valid() error {
	if ls.LevelName == "" {
		return errs.NewFatal("empty level_name")
	}
	if ls.Board.Columns <= 0 || ls.Board.Rows <= 0 {
		return errs.NewFatal(fmt.Sprintf("level_name: %s err:invalid board dimensions cols=%d rows=%d",
			ls.LevelName, ls.Board.Columns, ls.Board.Rows))
	}
	if ls.Board.NumColors < 3 {
		// 少於 3 色時初始去重排列幾乎必然無解，視為設定錯誤
		return errs.NewFatal(fmt.Sprintf("level_name: %s err:num_colors must be >= 3, got %d",
			ls.LevelName, ls.Board.NumColors))
	}
	return nil
}
