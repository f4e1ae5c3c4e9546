package resume

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Lines 是描述字段的唯一内部表示：每个元素对应一行要点。
// 解码时同时接受字符串（按换行/项目符号拆分）和字符串数组，编码时总是数组。
type Lines []string

// bulletMarkers 按长度降序排列，保证多字节的乱码序列优先匹配。
var bulletMarkers = []string{"â€¢", "•", "·", "–", "-", "*", "▪", "◦"}

// SplitLines converts a legacy single-string description into lines.
func SplitLines(s string) Lines {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "â€¢", "\n")
	s = strings.ReplaceAll(s, "•", "\n")
	out := Lines{}
	for _, part := range strings.Split(s, "\n") {
		if line := cleanLine(part); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// NormalizeLines cleans every element and drops blanks. Elements that still
// contain embedded newlines or bullet glyphs are split further.
func NormalizeLines(in []string) Lines {
	out := Lines{}
	for _, raw := range in {
		if strings.ContainsAny(raw, "\n•") || strings.Contains(raw, "â€¢") {
			out = append(out, SplitLines(raw)...)
			continue
		}
		if line := cleanLine(raw); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func cleanLine(s string) string {
	s = strings.TrimSpace(s)
	for {
		stripped := false
		for _, marker := range bulletMarkers {
			if strings.HasPrefix(s, marker) {
				rest := strings.TrimPrefix(s, marker)
				// "-" 与 "*" 只有后面跟空白时才视为项目符号，避免误删 "-5%" 之类的内容。
				if (marker == "-" || marker == "*") && rest != "" && !strings.HasPrefix(rest, " ") && !strings.HasPrefix(rest, "\t") {
					continue
				}
				s = strings.TrimSpace(rest)
				stripped = true
				break
			}
		}
		if !stripped {
			return s
		}
	}
}

// Clone returns an independent copy.
func (l Lines) Clone() Lines {
	if l == nil {
		return Lines{}
	}
	return append(Lines{}, l...)
}

// String joins the lines with newlines, the form sent to the AI collaborator.
func (l Lines) String() string {
	return strings.Join(l, "\n")
}

// UnmarshalJSON accepts a string, an array of strings, or null.
func (l *Lines) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = Lines{}
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode description string: %w", err)
		}
		*l = SplitLines(s)
		return nil
	case '[':
		var raw []any
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("decode description list: %w", err)
		}
		items := make([]string, 0, len(raw))
		for _, v := range raw {
			switch t := v.(type) {
			case nil:
			case string:
				items = append(items, t)
			default:
				items = append(items, fmt.Sprint(t))
			}
		}
		*l = NormalizeLines(items)
		return nil
	default:
		return fmt.Errorf("description must be a string or list, got %s", string(data[:1]))
	}
}

// MarshalJSON always emits an array, never null.
func (l Lines) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}
