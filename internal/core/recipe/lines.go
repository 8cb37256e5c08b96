package recipe

import (
	"encoding/json"
	"strings"
)

// Lines 有序的文字行；序列化時以換行連接。
// 空字串元素代表區段分隔（組合餐點中各食譜之間的空行），不會出現在頭尾。
type Lines []string

// SplitLines 拆行並修剪，連續空行收斂為單一區段分隔
func SplitLines(text string) Lines {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return NewLines(strings.Split(text, "\n")...)
}

// NewLines 由多行建立 Lines，規則同 SplitLines
func NewLines(raw ...string) Lines {
	out := Lines{}
	pendingBreak := false
	for _, item := range raw {
		for _, line := range strings.Split(item, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				pendingBreak = len(out) > 0
				continue
			}
			if pendingBreak {
				out = append(out, "")
				pendingBreak = false
			}
			out = append(out, line)
		}
	}
	return out
}

// String 以換行連接
func (l Lines) String() string {
	return strings.Join(l, "\n")
}

// Count 非空行數
func (l Lines) Count() int {
	n := 0
	for _, line := range l {
		if line != "" {
			n++
		}
	}
	return n
}

// Empty 是否沒有任何內容
func (l Lines) Empty() bool {
	return l.Count() == 0
}

// Clone 複製
func (l Lines) Clone() Lines {
	if l == nil {
		return nil
	}
	return append(Lines{}, l...)
}

// MarshalJSON 序列化為換行連接的字串
func (l Lines) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON 接受換行字串或字串陣列
func (l *Lines) UnmarshalJSON(data []byte) error {
	var f flexLines
	if err := f.UnmarshalJSON(data); err != nil {
		return err
	}
	*l = Lines(f)
	return nil
}
