package g

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"unicode"
)

// CamelToSnake converts Go field names to snake case, keeping acronyms together: QueryID -> query_id.
func CamelToSnake(s string) string {
	runes := []rune(s)
	b := new(strings.Builder)
	b.Grow(len(s) + 5)
	for i, c := range runes {
		if !unicode.IsUpper(c) {
			b.WriteRune(c)
			continue
		}
		if i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteRune('_')
			}
		}
		b.WriteRune(unicode.ToLower(c))
	}
	return b.String()
}

type jsonFrame struct {
	object bool
	n      int
}

// ChangeJsonKeys rewrites every object key with fixKey and keeps the order of keys.
// Malformed input is returned unchanged.
func ChangeJsonKeys(j json.RawMessage, fixKey func(s string) string) json.RawMessage {
	if len(bytes.TrimSpace(j)) == 0 {
		return j
	}
	dec := json.NewDecoder(bytes.NewReader(j))
	dec.UseNumber()
	var out bytes.Buffer
	var stack []jsonFrame
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return j
		}
		if d, ok := tok.(json.Delim); ok && (d == '}' || d == ']') {
			stack = stack[:len(stack)-1]
			out.WriteRune(rune(d))
			continue
		}
		isKey := len(stack) > 0 && stack[len(stack)-1].object && stack[len(stack)-1].n%2 == 0
		separate(&out, stack)
		switch v := tok.(type) {
		case json.Delim:
			stack = append(stack, jsonFrame{object: v == '{'})
			out.WriteRune(rune(v))
		case string:
			if isKey {
				v = fixKey(v)
			}
			raw, _ := json.Marshal(v)
			out.Write(raw)
		case json.Number:
			out.WriteString(v.String())
		case bool:
			out.WriteString(strconv.FormatBool(v))
		case nil:
			out.WriteString("null")
		}
	}
	if len(stack) != 0 {
		return j
	}
	return out.Bytes()
}

func separate(out *bytes.Buffer, stack []jsonFrame) {
	if len(stack) == 0 {
		return
	}
	top := &stack[len(stack)-1]
	switch {
	case top.object && top.n%2 == 1:
		out.WriteByte(':')
	case top.n > 0:
		out.WriteByte(',')
	}
	top.n++
}
