package frontier

// Stack is the crawl frontier: addresses discovered but not yet fetched.
// Pops are LIFO. A Stack is owned by the scheduling goroutine and is not
// safe for concurrent use.
type Stack struct {
	totalQueued int
	elements    []string
}

func NewStack() *Stack {
	return &Stack{
		elements: make([]string, 0),
	}
}

func (s *Stack) Push(u string) {
	s.elements = append(s.elements, u)
	s.totalQueued++
}

// Pop removes the most recently pushed address.
func (s *Stack) Pop() (string, bool) {
	n := len(s.elements)
	if n == 0 {
		return "", false
	}
	u := s.elements[n-1]
	s.elements[n-1] = ""
	s.elements = s.elements[:n-1]
	return u, true
}

func (s *Stack) Len() int { return len(s.elements) }

func (s *Stack) TotalQueued() int { return s.totalQueued }
