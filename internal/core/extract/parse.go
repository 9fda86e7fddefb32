package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"smartlist/internal/pkg/common"
)

// ErrorKind AI 抽取失敗類型
type ErrorKind string

const (
	KindTransport ErrorKind = "transport"
	KindStatus    ErrorKind = "status"
	KindNoText    ErrorKind = "no_text"
	KindNoArray   ErrorKind = "no_array"
	KindEmpty     ErrorKind = "empty"
	KindDisabled  ErrorKind = "disabled"
)

// ExtractionError AI 路徑的失敗，在抽取器內部被吸收並改走本地規則
type ExtractionError struct {
	Kind ErrorKind
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("extraction %s", e.Kind)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// IsKind 判斷錯誤是否為指定類型的 ExtractionError
func IsKind(err error, kind ErrorKind) bool {
	var ee *ExtractionError
	return errors.As(err, &ee) && ee.Kind == kind
}

var fencedJSONPattern = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// fencedJSON 取出 ```json 區塊內容
func fencedJSON(reply string) (string, bool) {
	m := fencedJSONPattern.FindStringSubmatch(reply)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// bracketArray 取第一個 '[' 到最後一個 ']' 的子字串
func bracketArray(reply string) (string, bool) {
	start := strings.Index(reply, "[")
	end := strings.LastIndex(reply, "]")
	if start < 0 || end <= start {
		return "", false
	}
	return reply[start : end+1], true
}

// decodeArray 解析 JSON 陣列並轉為字串列表
func decodeArray(raw string) ([]string, error) {
	var elems []any
	if err := common.ParseJSON(raw, &elems); err != nil {
		return nil, err
	}
	if elems == nil {
		return nil, errors.New("not a json array")
	}

	out := make([]string, 0, len(elems))
	for _, e := range elems {
		s, ok := coerce(e)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

func coerce(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		if t {
			return "true", true
		}
		return "false", true
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(t); err != nil {
			return "", false
		}
		return strings.TrimSpace(buf.String()), true
	}
}

// ParseReply 將模型回覆轉為食材列表。
// 先嘗試 ```json 區塊，再嘗試中括號範圍，都失敗則回傳 no_array。
func ParseReply(reply string) ([]string, error) {
	var items []string
	parsed := false

	if block, ok := fencedJSON(reply); ok {
		if list, err := decodeArray(block); err == nil {
			items, parsed = list, true
		}
	}
	if !parsed {
		if raw, ok := bracketArray(reply); ok {
			if list, err := decodeArray(raw); err == nil {
				items, parsed = list, true
			}
		}
	}
	if !parsed {
		return nil, &ExtractionError{Kind: KindNoArray}
	}
	if len(items) == 0 {
		return nil, &ExtractionError{Kind: KindEmpty}
	}
	return items, nil
}
