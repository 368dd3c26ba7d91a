// Package kinematics models articulated rigid-body robots as trees of links
// connected by joints, and computes forward kinematics and Jacobians over them.
package kinematics

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/robosim-dev/robosim/spatialmath"
)

// Chain is an ordered tree of Links connected by Joints, rooted at a base frame.
// Links and joints live in index-addressed slices, with tree structure expressed
// through parent indices, so traversal never chases owning pointers. A chain is
// constructed once from a robot description and then mutated only through joint
// value updates.
type Chain struct {
	name string

	// links[0] is the root. Every link's parent precedes it in the slice, so a
	// single forward scan visits parents before children.
	links      []*Link
	parents    []int    // parent link index per link, -1 for the root
	joints     []*Joint // joint attaching each link to its parent, nil for the root
	linkIndex  map[string]int
	jointIndex map[string]int // joint name to the index of the link it attaches

	basePose spatialmath.Pose

	// World pose cache per link, valid only while fresh is set. Any joint value
	// mutation clears it.
	poses []spatialmath.Pose
	fresh bool
}

// NewChain creates a chain containing only the given root link, fixed at the base
// frame.
func NewChain(name string, root *Link) (*Chain, error) {
	if root == nil {
		return nil, errors.New("chain root link cannot be nil")
	}
	c := &Chain{
		name:       name,
		links:      []*Link{root},
		parents:    []int{-1},
		joints:     []*Joint{nil},
		linkIndex:  map[string]int{root.Name(): 0},
		jointIndex: map[string]int{},
		basePose:   spatialmath.NewZeroPose(),
	}
	return c, nil
}

// AddLink attaches a link to an existing parent link through the given joint. Link
// and joint names must be unique within the chain; since every non-root link enters
// with exactly one parent joint and parents must already exist, the tree can hold
// neither cycles nor extra roots.
func (c *Chain) AddLink(link *Link, parentName string, joint *Joint) error {
	if link == nil || joint == nil {
		return errors.New("link and joint cannot be nil")
	}
	if _, ok := c.linkIndex[link.Name()]; ok {
		return errors.Errorf("chain already contains a link named %q", link.Name())
	}
	parentIdx, ok := c.linkIndex[parentName]
	if !ok {
		return NewInvalidLinkError(parentName)
	}
	if joint.Name() == "" {
		return errors.New("joint name cannot be empty")
	}
	if _, ok := c.jointIndex[joint.Name()]; ok {
		return errors.Errorf("chain already contains a joint named %q", joint.Name())
	}

	c.links = append(c.links, link)
	c.parents = append(c.parents, parentIdx)
	c.joints = append(c.joints, joint)
	c.linkIndex[link.Name()] = len(c.links) - 1
	c.jointIndex[joint.Name()] = len(c.links) - 1
	c.fresh = false
	return nil
}

// Name returns the name of the chain.
func (c *Chain) Name() string {
	return c.name
}

// DoF returns the total degrees of freedom of the chain.
func (c *Chain) DoF() int {
	dof := 0
	for _, j := range c.joints {
		if j != nil {
			dof += j.DoF()
		}
	}
	return dof
}

// Limits returns the motion limits of every movable joint in tree order. Joints
// without limits report unbounded limits.
func (c *Chain) Limits() []Limit {
	limits := make([]Limit, 0, c.DoF())
	for _, j := range c.joints {
		if j != nil && j.DoF() > 0 {
			limits = append(limits, j.Limit())
		}
	}
	return limits
}

// JointNames returns the names of every movable joint in tree order, matching the
// ordering used by JointValues and Jacobian columns.
func (c *Chain) JointNames() []string {
	names := make([]string, 0, c.DoF())
	for _, j := range c.joints {
		if j != nil && j.DoF() > 0 {
			names = append(names, j.Name())
		}
	}
	return names
}

// LinkNames returns the names of every link in tree order, root first.
func (c *Chain) LinkNames() []string {
	names := make([]string, 0, len(c.links))
	for _, l := range c.links {
		names = append(names, l.Name())
	}
	return names
}

// Link returns the link with the given name.
func (c *Chain) Link(name string) (*Link, error) {
	idx, ok := c.linkIndex[name]
	if !ok {
		return nil, NewInvalidLinkError(name)
	}
	return c.links[idx], nil
}

// Leaves returns the names of all links with no children, i.e. the chain's end
// effectors.
func (c *Chain) Leaves() []string {
	hasChild := make([]bool, len(c.links))
	for i, p := range c.parents {
		if i > 0 {
			hasChild[p] = true
		}
	}
	var leaves []string
	for i, l := range c.links {
		if !hasChild[i] {
			leaves = append(leaves, l.Name())
		}
	}
	return leaves
}

// SetBasePose places the chain's root at the given pose in the world frame.
func (c *Chain) SetBasePose(p spatialmath.Pose) {
	if p == nil {
		p = spatialmath.NewZeroPose()
	}
	c.basePose = p
	c.fresh = false
}

// SetJointValue sets the value of the named joint, clamping to the joint's limits
// when present. It returns an InvalidJointError if the name does not exist or
// addresses a fixed joint.
func (c *Chain) SetJointValue(name string, value float64) error {
	idx, ok := c.jointIndex[name]
	if !ok {
		return NewInvalidJointError(name)
	}
	j := c.joints[idx]
	if j.DoF() == 0 {
		return NewFixedJointError(name)
	}
	j.setValue(value)
	c.fresh = false
	return nil
}

// JointValue returns the current value of the named joint.
func (c *Chain) JointValue(name string) (float64, error) {
	idx, ok := c.jointIndex[name]
	if !ok {
		return 0, NewInvalidJointError(name)
	}
	return c.joints[idx].Value(), nil
}

// SetJointValues sets every movable joint from the given vector, in tree order,
// clamping each to its limits. The vector length must match the chain's DoF.
func (c *Chain) SetJointValues(values []float64) error {
	if len(values) != c.DoF() {
		return NewIncorrectDoFError(len(values), c.DoF())
	}
	i := 0
	for _, j := range c.joints {
		if j != nil && j.DoF() > 0 {
			j.setValue(values[i])
			i++
		}
	}
	c.fresh = false
	return nil
}

// JointValues returns the current values of every movable joint in tree order.
func (c *Chain) JointValues() []float64 {
	values := make([]float64, 0, c.DoF())
	for _, j := range c.joints {
		if j != nil && j.DoF() > 0 {
			values = append(values, j.Value())
		}
	}
	return values
}

// ForwardKinematics recomputes every link's world pose by composing transforms
// along each root-to-leaf path. It runs in O(number of links) and guarantees the
// pose cache reflects the latest joint values once it returns; poses are stale and
// must not be trusted until then.
func (c *Chain) ForwardKinematics() {
	if c.poses == nil {
		c.poses = make([]spatialmath.Pose, len(c.links))
	}
	for i := range c.links {
		if c.parents[i] < 0 {
			c.poses[i] = c.basePose
			continue
		}
		c.poses[i] = spatialmath.Compose(c.poses[c.parents[i]], c.joints[i].Transform())
	}
	c.fresh = true
}

// LinkPose returns the cached world pose of the named link. It errors if the cache
// has not been refreshed since the last joint mutation.
func (c *Chain) LinkPose(name string) (spatialmath.Pose, error) {
	idx, ok := c.linkIndex[name]
	if !ok {
		return nil, NewInvalidLinkError(name)
	}
	if !c.fresh {
		return nil, NewStalePoseCacheError()
	}
	return c.poses[idx], nil
}

// LinkPoses returns the cached world pose of every link, keyed by link name. It
// errors if the cache has not been refreshed since the last joint mutation.
func (c *Chain) LinkPoses() (map[string]spatialmath.Pose, error) {
	if !c.fresh {
		return nil, NewStalePoseCacheError()
	}
	poses := make(map[string]spatialmath.Pose, len(c.links))
	for i, l := range c.links {
		poses[l.Name()] = c.poses[i]
	}
	return poses, nil
}

// PathJoints returns the names of the movable joints on the path from the root to
// the named link, ordered root first.
func (c *Chain) PathJoints(linkName string) ([]string, error) {
	idx, ok := c.linkIndex[linkName]
	if !ok {
		return nil, NewInvalidLinkError(linkName)
	}
	var names []string
	for i := idx; i > 0; i = c.parents[i] {
		if c.joints[i].DoF() > 0 {
			names = append(names, c.joints[i].Name())
		}
	}
	// reverse into root-first order
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return names, nil
}

// Jacobian returns the 6xN matrix (N = chain DoF) mapping joint velocity changes to
// the linear and angular velocity of the named link's origin, expressed in the base
// frame. Rows 0-2 are linear, rows 3-5 angular. Columns are ordered like
// JointValues; columns for joints not on the root-to-link path are zero. A chain
// with no degrees of freedom yields an empty matrix. The pose cache must be fresh.
func (c *Chain) Jacobian(linkName string) (*mat.Dense, error) {
	target, ok := c.linkIndex[linkName]
	if !ok {
		return nil, NewInvalidLinkError(linkName)
	}
	if !c.fresh {
		return nil, NewStalePoseCacheError()
	}
	dof := c.DoF()
	if dof == 0 {
		return &mat.Dense{}, nil
	}
	jacobian := mat.NewDense(6, dof, nil)

	// Column index per link whose attaching joint is movable.
	column := make([]int, len(c.links))
	col := 0
	for i, j := range c.joints {
		column[i] = -1
		if j != nil && j.DoF() > 0 {
			column[i] = col
			col++
		}
	}

	pTarget := c.poses[target].Point()
	for i := target; i > 0; i = c.parents[i] {
		j := c.joints[i]
		if j.DoF() == 0 {
			continue
		}
		// The joint frame sits at the parent link's pose composed with the
		// joint offset; motion happens about/along the axis of that frame.
		jointFrame := spatialmath.Compose(c.poses[c.parents[i]], j.Offset())
		axisWorld := jointFrame.Orientation().RotationMatrix().Mul(j.Axis())

		var linear, angular r3.Vector
		switch j.Type() {
		case JointTypeRevolute:
			linear = axisWorld.Cross(pTarget.Sub(jointFrame.Point()))
			angular = axisWorld
		case JointTypePrismatic:
			linear = axisWorld
		}

		jacobian.Set(0, column[i], linear.X)
		jacobian.Set(1, column[i], linear.Y)
		jacobian.Set(2, column[i], linear.Z)
		jacobian.Set(3, column[i], angular.X)
		jacobian.Set(4, column[i], angular.Y)
		jacobian.Set(5, column[i], angular.Z)
	}
	return jacobian, nil
}

// Clone returns a chain with the same structure and joint values which can be
// mutated independently of the original. Links are immutable and shared.
func (c *Chain) Clone() *Chain {
	clone := &Chain{
		name:       c.name,
		links:      append([]*Link(nil), c.links...),
		parents:    append([]int(nil), c.parents...),
		joints:     make([]*Joint, len(c.joints)),
		linkIndex:  make(map[string]int, len(c.linkIndex)),
		jointIndex: make(map[string]int, len(c.jointIndex)),
		basePose:   c.basePose,
	}
	for i, j := range c.joints {
		if j != nil {
			jc := *j
			if j.limit != nil {
				l := *j.limit
				jc.limit = &l
			}
			clone.joints[i] = &jc
		}
	}
	for k, v := range c.linkIndex {
		clone.linkIndex[k] = v
	}
	for k, v := range c.jointIndex {
		clone.jointIndex[k] = v
	}
	return clone
}
