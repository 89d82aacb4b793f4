package fetcher

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"felixplore/internal/models"
)

// Separator goes between consecutive rendered articles.
const Separator = "\n#########################\n\n"

type field struct {
	key   string
	value any
}

// RenderArticle renders one article as a single-line JSON metadata header, a
// blank line, then the body. Metadata keeps only the non-zero fields among id,
// page_no, headline and strapline, in that order.
func RenderArticle(a models.IssueArticle) (string, error) {
	fields := make([]field, 0, 4)
	if a.ID != 0 {
		fields = append(fields, field{"id", a.ID})
	}
	if a.PageNo != nil && *a.PageNo != 0 {
		fields = append(fields, field{"page_no", *a.PageNo})
	}
	if a.Headline != nil && *a.Headline != "" {
		fields = append(fields, field{"headline", *a.Headline})
	}
	if a.Strapline != nil && *a.Strapline != "" {
		fields = append(fields, field{"strapline", *a.Strapline})
	}

	meta, err := encodeMeta(fields)
	if err != nil {
		return "", err
	}
	body := ""
	if a.Txt != nil {
		body = *a.Txt
	}
	return meta + "\n\n" + body, nil
}

// Render joins the rendered articles with Separator.
func Render(articles []models.IssueArticle) (string, error) {
	blocks := make([]string, 0, len(articles))
	for _, a := range articles {
		b, err := RenderArticle(a)
		if err != nil {
			return "", err
		}
		blocks = append(blocks, b)
	}
	return strings.Join(blocks, Separator), nil
}

// encodeMeta writes an object as {"k": v, "k2": v2}, preserving field order.
func encodeMeta(fields []field) (string, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteString(", ")
		}
		k, err := marshal(f.key)
		if err != nil {
			return "", err
		}
		v, err := marshal(f.value)
		if err != nil {
			return "", err
		}
		buf.Write(k)
		buf.WriteString(": ")
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.String(), nil
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return asciiEscape(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// asciiEscape rewrites every non-ASCII rune of encoded JSON as a lowercase
// \uXXXX escape, using a surrogate pair above the BMP.
func asciiEscape(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for len(b) > 0 {
		if b[0] < utf8.RuneSelf {
			out = append(out, b[0])
			b = b[1:]
			continue
		}
		r, size := utf8.DecodeRune(b)
		b = b[size:]
		if r > 0xffff {
			r1, r2 := utf16.EncodeRune(r)
			out = fmt.Appendf(out, `\u%04x\u%04x`, r1, r2)
			continue
		}
		out = fmt.Appendf(out, `\u%04x`, r)
	}
	return out
}
