package interval

import (
	"github.com/roach88/portmanteau/internal/space"
)

// Space is [0,1] with the subspace topology inherited from the real line.
// It implements space.Topology[Set].
type Space struct{}

var _ space.Topology[Set] = Space{}

func (Space) Universe() Set { return All() }
func (Space) Empty() Set { return Set{} }
func (Space) Complement(s Set) Set { return s.Complement() }
func (Space) Interior(s Set) Set { return s.Interior() }
func (Space) Closure(s Set) Set { return s.Closure() }
func (Space) Frontier(s Set) Set { return s.Frontier() }
func (Space) IsOpen(s Set) bool { return s.Interior().Equal(s) }
func (Space) IsClosed(s Set) bool { return s.Closure().Equal(s) }
func (Space) Subset(a, b Set) bool { return Intersect(a, b).Equal(a) }
func (Space) Equal(a, b Set) bool { return a.Equal(b) }
func (Space) Format(s Set) string { return s.String() }
