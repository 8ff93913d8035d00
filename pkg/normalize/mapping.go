package normalize

// mappedText is a working string that remembers, for every byte, the span
// of the raw input it came from. Each normalization phase edits the text
// through replaceRange, which keeps the origin arrays in sync, so span
// backmapping stays correct no matter how many phases ran.
type mappedText struct {
	text string
	// starts[i] / ends[i] bound the raw byte span that produced text[i].
	// Bytes copied verbatim map 1:1; bytes introduced by a replacement all
	// map to the full raw span of the replaced region.
	starts []int
	ends   []int
}

func newMappedText(raw string) *mappedText {
	m := &mappedText{
		text:   raw,
		starts: make([]int, len(raw)),
		ends:   make([]int, len(raw)),
	}
	for i := 0; i < len(raw); i++ {
		m.starts[i] = i
		m.ends[i] = i + 1
	}
	return m
}

// replaceRange replaces text[start:end] with repl. All bytes of repl are
// attributed to the raw span previously covered by [start, end). Deletions
// (empty repl) simply drop the region. Out-of-range arguments are clamped;
// the normalizer never panics on odd input.
func (m *mappedText) replaceRange(start, end int, repl string) {
	if start < 0 {
		start = 0
	}
	if end > len(m.text) {
		end = len(m.text)
	}
	if start > end {
		return
	}

	rawStart, rawEnd := m.originSpan(start, end)

	newText := m.text[:start] + repl + m.text[end:]
	newStarts := make([]int, 0, len(newText))
	newEnds := make([]int, 0, len(newText))

	newStarts = append(newStarts, m.starts[:start]...)
	newEnds = append(newEnds, m.ends[:start]...)
	for i := 0; i < len(repl); i++ {
		newStarts = append(newStarts, rawStart)
		newEnds = append(newEnds, rawEnd)
	}
	newStarts = append(newStarts, m.starts[end:]...)
	newEnds = append(newEnds, m.ends[end:]...)

	m.text = newText
	m.starts = newStarts
	m.ends = newEnds
}

// originSpan returns the raw span covered by text[start:end). For an empty
// region it falls back to the insertion point's neighbors so a replacement
// there still lands somewhere sensible.
func (m *mappedText) originSpan(start, end int) (int, int) {
	if start < end {
		return m.starts[start], m.ends[end-1]
	}
	switch {
	case start < len(m.text):
		return m.starts[start], m.starts[start]
	case len(m.text) > 0:
		return m.ends[len(m.text)-1], m.ends[len(m.text)-1]
	default:
		return 0, 0
	}
}

// backmap translates a span of the current text into raw-input byte
// offsets. Returns ok=false when the span is out of range, which callers
// treat as "omit this snippet" rather than an error.
func (m *mappedText) backmap(start, end int) (rawStart, rawEnd int, ok bool) {
	if start < 0 || end > len(m.text) || start >= end {
		return 0, 0, false
	}
	return m.starts[start], m.ends[end-1], true
}
