package library

import "strings"

// Fragment is a piece of highlighted text.
type Fragment struct {
	Text  string
	Match bool
}

// Highlight splits text into fragments, marking every case-insensitive
// occurrence of search. A blank search yields the whole text unmarked.
func Highlight(text, search string) []Fragment {
	if strings.TrimSpace(search) == "" || text == "" {
		return []Fragment{{Text: text}}
	}

	lowerText := strings.ToLower(text)
	lowerSearch := strings.ToLower(search)
	if len(lowerText) != len(text) || len(lowerSearch) != len(search) {
		// Case folding changed byte lengths; fall back to exact matching
		// so offsets stay valid.
		lowerText, lowerSearch = text, search
	}

	var out []Fragment
	for {
		i := strings.Index(lowerText, lowerSearch)
		if i < 0 {
			break
		}
		if i > 0 {
			out = append(out, Fragment{Text: text[:i]})
		}
		n := len(lowerSearch)
		out = append(out, Fragment{Text: text[i : i+n], Match: true})
		text, lowerText = text[i+n:], lowerText[i+n:]
	}
	if text != "" {
		out = append(out, Fragment{Text: text})
	}
	return out
}

// Mark renders fragments with matches wrapped in before and after.
func Mark(fragments []Fragment, before, after string) string {
	var b strings.Builder
	for _, f := range fragments {
		if f.Match {
			b.WriteString(before)
			b.WriteString(f.Text)
			b.WriteString(after)
			continue
		}
		b.WriteString(f.Text)
	}
	return b.String()
}
