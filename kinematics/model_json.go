package kinematics

import (
	"encoding/json"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/robosim-dev/robosim/spatialmath"
	"github.com/robosim-dev/robosim/utils"
)

// ErrNoModelInformation is used when there is no model information.
var ErrNoModelInformation = errors.New("no model information")

// ModelConfig represents all supported fields in a robot description JSON file.
type ModelConfig struct {
	Name   string        `json:"name"`
	Links  []LinkConfig  `json:"links"`
	Joints []JointConfig `json:"joints"`
}

// LinkConfig describes a rigid body. Parent names the joint that attaches the link;
// the single link without a parent is the chain's root.
type LinkConfig struct {
	ID       string    `json:"id"`
	Parent   string    `json:"parent,omitempty"`
	Mass     float64   `json:"mass,omitempty"`
	Inertia  []float64 `json:"inertia,omitempty"`
	Centroid XYZConfig `json:"centroid,omitempty"`
}

// JointConfig describes a joint. Parent names the parent link. Translation and
// orientation place the joint frame relative to the parent link. Revolute limits
// are in degrees, prismatic limits in the model's length units; absent limits mean
// unbounded motion.
type JointConfig struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Parent      string    `json:"parent"`
	Axis        XYZConfig `json:"axis,omitempty"`
	Translation XYZConfig `json:"translation,omitempty"`
	Orientation *AAConfig `json:"orientation,omitempty"`
	Min         *float64  `json:"min,omitempty"`
	Max         *float64  `json:"max,omitempty"`
}

// XYZConfig is a JSON representation of a 3D vector.
type XYZConfig struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// AAConfig is a JSON representation of an R4 axis angle, with theta in degrees.
type AAConfig struct {
	Th float64 `json:"th"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	Z  float64 `json:"z"`
}

func (v XYZConfig) toR3() r3.Vector {
	return r3.Vector{X: v.X, Y: v.Y, Z: v.Z}
}

// UnmarshalModelJSON will parse the given JSON data into a kinematic chain.
// modelName sets the name of the chain, and will use the name from the JSON if the
// string is empty.
func UnmarshalModelJSON(jsonData []byte, modelName string) (*Chain, error) {
	// empty data probably means that the robot has no model information
	if len(jsonData) == 0 {
		return nil, ErrNoModelInformation
	}

	cfg := &ModelConfig{}
	if err := json.Unmarshal(jsonData, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal json file")
	}
	return cfg.ParseConfig(modelName)
}

// ParseModelFile parses a robot description from the given JSON file path.
func ParseModelFile(filename, modelName string) (*Chain, error) {
	jsonData, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read json file")
	}
	return UnmarshalModelJSON(jsonData, modelName)
}

// ParseConfig converts the ModelConfig struct into a full Chain with the name
// modelName.
func (cfg *ModelConfig) ParseConfig(modelName string) (*Chain, error) {
	if modelName == "" {
		modelName = cfg.Name
	}

	// Links reference joints by name, and joints reference links; index both so
	// elements can be processed out of order.
	jointCfgs := map[string]JointConfig{}
	for _, joint := range cfg.Joints {
		if _, ok := jointCfgs[joint.ID]; ok {
			return nil, errors.Errorf("joint %q defined twice", joint.ID)
		}
		jointCfgs[joint.ID] = joint
	}

	var rootCfg *LinkConfig
	for i, link := range cfg.Links {
		if link.Parent != "" {
			continue
		}
		if rootCfg != nil {
			return nil, errors.Errorf("links %q and %q both have no parent; a chain has exactly one root", rootCfg.ID, link.ID)
		}
		rootCfg = &cfg.Links[i]
	}
	if rootCfg == nil {
		return nil, errors.New("no root link found; exactly one link must have no parent")
	}

	root, err := rootCfg.parseLink()
	if err != nil {
		return nil, err
	}
	chain, err := NewChain(modelName, root)
	if err != nil {
		return nil, err
	}

	// Attach links in passes until no progress is made; anything left over has a
	// missing parent or participates in a cycle.
	remaining := map[string]LinkConfig{}
	for _, link := range cfg.Links {
		if link.Parent != "" {
			remaining[link.ID] = link
		}
	}
	for len(remaining) > 0 {
		placed := 0
		for id, linkCfg := range remaining {
			jointCfg, ok := jointCfgs[linkCfg.Parent]
			if !ok {
				return nil, errors.Errorf("link %q references undefined joint %q", id, linkCfg.Parent)
			}
			if _, err := chain.Link(jointCfg.Parent); err != nil {
				continue
			}
			link, err := linkCfg.parseLink()
			if err != nil {
				return nil, err
			}
			joint, err := jointCfg.parseJoint()
			if err != nil {
				return nil, err
			}
			if err := chain.AddLink(link, jointCfg.Parent, joint); err != nil {
				return nil, err
			}
			delete(remaining, id)
			placed++
		}
		if placed == 0 {
			var orphans []string
			for id := range remaining {
				orphans = append(orphans, id)
			}
			return nil, errors.Errorf("links %v could not be attached; check for cycles or missing parents", orphans)
		}
	}
	return chain, nil
}

func (cfg *LinkConfig) parseLink() (*Link, error) {
	return NewLink(cfg.ID, cfg.Mass, cfg.Inertia, cfg.Centroid.toR3())
}

func (cfg *JointConfig) parseJoint() (*Joint, error) {
	offset := spatialmath.NewPoseFromPoint(cfg.Translation.toR3())
	if cfg.Orientation != nil {
		aa := &spatialmath.R4AA{
			Theta: utils.DegToRad(cfg.Orientation.Th),
			RX:    cfg.Orientation.X,
			RY:    cfg.Orientation.Y,
			RZ:    cfg.Orientation.Z,
		}
		offset = spatialmath.NewPose(cfg.Translation.toR3(), aa)
	}

	switch JointType(cfg.Type) {
	case JointTypeFixed:
		return NewFixedJoint(cfg.ID, offset), nil
	case JointTypeRevolute:
		limit, err := cfg.parseLimit(utils.DegToRad)
		if err != nil {
			return nil, err
		}
		return NewRevoluteJoint(cfg.ID, cfg.Axis.toR3(), offset, limit)
	case JointTypePrismatic:
		limit, err := cfg.parseLimit(nil)
		if err != nil {
			return nil, err
		}
		return NewPrismaticJoint(cfg.ID, cfg.Axis.toR3(), offset, limit)
	default:
		return nil, errors.Errorf("unsupported joint type detected: %q", cfg.Type)
	}
}

func (cfg *JointConfig) parseLimit(convert func(float64) float64) (*Limit, error) {
	if cfg.Min == nil && cfg.Max == nil {
		return nil, nil
	}
	if cfg.Min == nil || cfg.Max == nil {
		return nil, errors.Errorf("joint %q must set both min and max limits or neither", cfg.ID)
	}
	limit := Limit{Min: *cfg.Min, Max: *cfg.Max}
	if convert != nil {
		limit.Min = convert(limit.Min)
		limit.Max = convert(limit.Max)
	}
	return &limit, nil
}
