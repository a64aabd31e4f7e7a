package spec

import (
	"encoding/json"

	"github.com/zintix-labs/matchlab/errs"
	"gopkg.in/yaml.v3"
)

// GetLevelSettingByYAML
// 會讀取 YAML 設定、初始化各子設定並執行基本檢查後回傳。
func GetLevelSettingByYAML(data []byte) (*LevelSetting, error) {
	ls := &LevelSetting{}
	if err := yaml.Unmarshal(data, ls); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshall yaml")
	}

	// 設定檔初始化
	if err := ls.init(); err != nil {
		return nil, errs.Wrap(err, "level setting initialized err")
	}

	return ls, nil
}

// GetLevelSettingByJSON
// 會讀取 Json 設定、初始化各子設定並執行基本檢查後回傳
func GetLevelSettingByJSON(data []byte) (*LevelSetting, error) {
	ls := &LevelSetting{}
	if err := json.Unmarshal(data, ls); err != nil {
		return nil, errs.Wrap(err, "can not unmarshall json byte")
	}

	// 設定檔初始化
	if err := ls.init(); err != nil {
		return nil, errs.Wrap(err, "level setting initialized err")
	}

	return ls, nil
}
