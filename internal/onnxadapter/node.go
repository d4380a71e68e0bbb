// Package onnxadapter is the ONNX-graph-to-giga-calls half of §2's
// component O ("External adapters"): a Registry of operator handlers that
// turn one already-topologically-resolved ONNX node into calls against
// the giga public API. It is a local, minimal stand-in for a real ONNX
// protobuf reader -- Node and Attribute copy just the fields a graph
// converter needs, the way the teacher's internal/onnx/operators package
// carries its own trimmed Node/Attribute rather than importing an ONNX
// protobuf package into the operator layer.
package onnxadapter

// Node represents one ONNX graph node, trimmed to the fields a handler
// needs. Inputs/Outputs name tensors already resolved to giga Handles by
// the caller (see Context.Bind) -- this package has no graph-loading
// logic of its own.
type Node struct {
	Name       string
	OpType     string
	Inputs     []string
	Outputs    []string
	Attributes []Attribute
	Domain     string
}

// Attribute mirrors one ONNX AttributeProto's payload fields.
type Attribute struct {
	Name    string
	Type    int32
	F       float32
	I       int64
	S       []byte
	Floats  []float32
	Ints    []int64
	Strings [][]byte
}

// GetAttrInt returns an integer attribute or defaultVal.
func GetAttrInt(node *Node, name string, defaultVal int64) int64 {
	for i := range node.Attributes {
		if node.Attributes[i].Name == name {
			return node.Attributes[i].I
		}
	}
	return defaultVal
}

// GetAttrInts returns an integer-array attribute, or nil if absent.
func GetAttrInts(node *Node, name string) []int64 {
	for i := range node.Attributes {
		if node.Attributes[i].Name == name {
			return node.Attributes[i].Ints
		}
	}
	return nil
}

// GetAttrFloat returns a float attribute or defaultVal.
func GetAttrFloat(node *Node, name string, defaultVal float32) float32 {
	for i := range node.Attributes {
		if node.Attributes[i].Name == name {
			return node.Attributes[i].F
		}
	}
	return defaultVal
}

// GetAttrString returns a string attribute or defaultVal.
func GetAttrString(node *Node, name, defaultVal string) string {
	for i := range node.Attributes {
		if node.Attributes[i].Name == name {
			return string(node.Attributes[i].S)
		}
	}
	return defaultVal
}
