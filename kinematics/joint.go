package kinematics

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/robosim-dev/robosim/spatialmath"
	"github.com/robosim-dev/robosim/utils"
)

// JointType is the closed set of supported joint kinds. Each kind's contribution to
// a pose and to the Jacobian differs by a small closed formula, so this is a tagged
// variant rather than open-ended dispatch.
type JointType string

// The supported joint types.
const (
	JointTypeRevolute  = JointType("revolute")
	JointTypePrismatic = JointType("prismatic")
	JointTypeFixed     = JointType("fixed")
)

// Joint is a single-degree-of-freedom connection between two links: a rotation
// about an axis (revolute), a translation along an axis (prismatic), or a rigid
// attachment (fixed). The offset pose places the joint frame relative to the parent
// link; joint motion is applied after the offset.
type Joint struct {
	name   string
	jtype  JointType
	axis   r3.Vector
	offset spatialmath.Pose
	limit  *Limit
	value  float64
}

// NewRevoluteJoint returns a joint rotating about the given axis, expressed in the
// joint's own frame. A nil limit means unbounded motion.
func NewRevoluteJoint(name string, axis r3.Vector, offset spatialmath.Pose, limit *Limit) (*Joint, error) {
	return newMovableJoint(name, JointTypeRevolute, axis, offset, limit)
}

// NewPrismaticJoint returns a joint translating along the given axis, expressed in
// the joint's own frame. A nil limit means unbounded motion.
func NewPrismaticJoint(name string, axis r3.Vector, offset spatialmath.Pose, limit *Limit) (*Joint, error) {
	return newMovableJoint(name, JointTypePrismatic, axis, offset, limit)
}

// NewFixedJoint returns a joint rigidly attaching a link to its parent at the given
// offset. Its value is pinned at 0 and rejects mutation.
func NewFixedJoint(name string, offset spatialmath.Pose) *Joint {
	if offset == nil {
		offset = spatialmath.NewZeroPose()
	}
	return &Joint{name: name, jtype: JointTypeFixed, offset: offset}
}

func newMovableJoint(name string, jtype JointType, axis r3.Vector, offset spatialmath.Pose, limit *Limit) (*Joint, error) {
	if axis.Norm() == 0 {
		return nil, errors.Errorf("cannot use zero vector as axis for joint %q", name)
	}
	if limit != nil && limit.Min > limit.Max {
		return nil, errors.Errorf("joint %q limit min %f exceeds max %f", name, limit.Min, limit.Max)
	}
	if offset == nil {
		offset = spatialmath.NewZeroPose()
	}
	j := &Joint{name: name, jtype: jtype, axis: axis.Normalize(), offset: offset}
	if limit != nil {
		l := *limit
		j.limit = &l
		j.value = utils.Clamp(0, l.Min, l.Max)
	}
	return j, nil
}

// Name returns the name of the joint.
func (j *Joint) Name() string {
	return j.name
}

// Type returns the kind of the joint.
func (j *Joint) Type() JointType {
	return j.jtype
}

// Axis returns the unit motion axis in the joint's own frame. Fixed joints have a
// zero axis.
func (j *Joint) Axis() r3.Vector {
	return j.axis
}

// Offset returns the parent-relative offset pose of the joint frame.
func (j *Joint) Offset() spatialmath.Pose {
	return j.offset
}

// DoF returns the number of degrees of freedom the joint contributes.
func (j *Joint) DoF() int {
	if j.jtype == JointTypeFixed {
		return 0
	}
	return 1
}

// Limit returns the joint's motion limit. Unlimited joints report an unbounded
// limit.
func (j *Joint) Limit() Limit {
	if j.limit == nil {
		return Unbounded()
	}
	return *j.limit
}

// Value returns the joint's current scalar value: an angle in radians for revolute
// joints, a displacement for prismatic ones, always 0 for fixed ones.
func (j *Joint) Value() float64 {
	return j.value
}

// setValue clamps the given value to the joint's limits if present and stores it.
// The chain is responsible for rejecting mutation of fixed joints before calling
// this.
func (j *Joint) setValue(value float64) {
	if j.limit != nil {
		value = utils.Clamp(value, j.limit.Min, j.limit.Max)
	}
	j.value = value
}

// Transform returns the pose going from the joint's child frame to the parent
// link's frame at the joint's current value.
func (j *Joint) Transform() spatialmath.Pose {
	switch j.jtype {
	case JointTypeRevolute:
		rot := &spatialmath.R4AA{Theta: j.value, RX: j.axis.X, RY: j.axis.Y, RZ: j.axis.Z}
		return spatialmath.Compose(j.offset, spatialmath.NewPoseFromOrientation(rot))
	case JointTypePrismatic:
		return spatialmath.Compose(j.offset, spatialmath.NewPoseFromPoint(j.axis.Mul(j.value)))
	default:
		return j.offset
	}
}
