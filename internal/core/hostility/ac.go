package hostility

// matcher is a byte-level Aho-Corasick automaton over the keyword table.
// Transitions are a dense 256-way table per state; -1 marks a missing edge.
type matcher struct {
	states []acState
	n      int // number of patterns
}

type acState struct {
	next [256]int32
	fail int32
	out  []int32 // pattern ids ending here, including via fail links
}

func newState() acState {
	var s acState
	for i := range s.next {
		s.next[i] = -1
	}
	return s
}

func newMatcher(patterns []string) *matcher {
	m := &matcher{states: []acState{newState()}, n: len(patterns)}
	for id, p := range patterns {
		m.insert([]byte(p), int32(id))
	}
	m.link()
	return m
}

func (m *matcher) insert(p []byte, id int32) {
	if len(p) == 0 {
		return
	}
	cur := int32(0)
	for _, b := range p {
		nxt := m.states[cur].next[b]
		if nxt < 0 {
			nxt = int32(len(m.states))
			m.states[cur].next[b] = nxt
			m.states = append(m.states, newState())
		}
		cur = nxt
	}
	m.states[cur].out = append(m.states[cur].out, id)
}

// link computes failure links breadth first and folds outputs down the fail chain
func (m *matcher) link() {
	queue := make([]int32, 0, len(m.states))
	for b := 0; b < 256; b++ {
		if s := m.states[0].next[b]; s >= 0 {
			m.states[s].fail = 0
			queue = append(queue, s)
		}
	}
	for qi := 0; qi < len(queue); qi++ {
		r := queue[qi]
		for b := 0; b < 256; b++ {
			s := m.states[r].next[b]
			if s < 0 {
				continue
			}
			queue = append(queue, s)

			f := m.states[r].fail
			for f != 0 && m.states[f].next[b] < 0 {
				f = m.states[f].fail
			}
			if t := m.states[f].next[b]; t >= 0 && t != s {
				m.states[s].fail = t
			} else {
				m.states[s].fail = 0
			}
			m.states[s].out = append(m.states[s].out, m.states[m.states[s].fail].out...)
		}
	}
}

// present reports which pattern ids occur in text at least once
func (m *matcher) present(text []byte) []bool {
	seen := make([]bool, m.n)
	cur := int32(0)
	for _, b := range text {
		for cur != 0 && m.states[cur].next[b] < 0 {
			cur = m.states[cur].fail
		}
		if nxt := m.states[cur].next[b]; nxt >= 0 {
			cur = nxt
		}
		for _, id := range m.states[cur].out {
			seen[id] = true
		}
	}
	return seen
}
