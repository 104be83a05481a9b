package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var placeholder = regexp.MustCompile(`\$\{[A-Za-z_][A-Za-z0-9_]*\}`)

// LoadConfig 按层读取配置目录并合并：base.yaml <- <env>.yaml。
// ${VAR} 占位符先查 secrets.env，再查进程环境变量；都没有时原样保留。
// base.yaml 不存在时返回 fs.ErrNotExist。
func LoadConfig(env string, configDir string) (map[string]interface{}, error) {
	if configDir == "" {
		configDir = "config"
	}

	secrets, err := readSecrets(filepath.Join(configDir, "secrets.env"))
	if err != nil {
		return nil, err
	}
	lookup := func(name string) string {
		if v, ok := secrets[name]; ok {
			return v
		}
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return "${" + name + "}"
	}

	layers := []string{"base"}
	if env != "" && env != "base" {
		layers = append(layers, env)
	}

	merged := map[string]interface{}{}
	for i, name := range layers {
		layer, err := readLayer(filepath.Join(configDir, name+".yaml"), lookup)
		if errors.Is(err, fs.ErrNotExist) && i > 0 {
			// 环境文件可选
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load %s.yaml: %w", name, err)
		}
		merged = mergeMaps(merged, layer)
	}
	return merged, nil
}

func readLayer(path string, lookup func(string) string) (map[string]interface{}, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	// 只替换 ${VAR}，bcrypt hash 之类的 $ 原样保留
	expanded := placeholder.ReplaceAllStringFunc(string(raw), func(m string) string {
		return lookup(m[2 : len(m)-1])
	})

	layer := map[string]interface{}{}
	if err := yaml.Unmarshal([]byte(expanded), &layer); err != nil {
		return nil, err
	}
	return layer, nil
}

// readSecrets 解析 KEY=VALUE 格式的 secrets.env，文件缺失返回空表
func readSecrets(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load secrets.env: %w", err)
	}

	secrets := make(map[string]string)
	sc := bufio.NewScanner(bytes.NewReader(raw))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if len(value) >= 2 && (value[0] == '"' || value[0] == '\'') && value[len(value)-1] == value[0] {
			value = value[1 : len(value)-1]
		}
		secrets[strings.TrimSpace(key)] = value
	}
	return secrets, sc.Err()
}

// mergeMaps 返回 dst 被 src 覆盖后的新 map，嵌套 map 递归合并
func mergeMaps(dst, src map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		dstChild, dstOK := out[k].(map[string]interface{})
		srcChild, srcOK := v.(map[string]interface{})
		if dstOK && srcOK {
			out[k] = mergeMaps(dstChild, srcChild)
			continue
		}
		out[k] = v
	}
	return out
}

// GetEnv 获取环境变量，如果未设置则返回默认值
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetConfigEnv 配置环境取自 CONFIG_ENV，默认 local
func GetConfigEnv() string {
	return GetEnv("CONFIG_ENV", "local")
}
