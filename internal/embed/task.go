package embed

import (
	"fmt"
	"strings"
)

// TaskType is the label prefixed to every input text. It steers the model
// toward a downstream use.
type TaskType string

const (
	TaskSearchDocument TaskType = "search_document"
	TaskSearchQuery    TaskType = "search_query"
	TaskClustering     TaskType = "clustering"
	TaskClassification TaskType = "classification"
)

// DefaultTaskType is used when a request omits task_type.
const DefaultTaskType = TaskSearchDocument

// TaskTypes lists the accepted task types in documentation order.
var TaskTypes = []TaskType{TaskSearchDocument, TaskSearchQuery, TaskClustering, TaskClassification}

// Valid reports whether t is one of the accepted task types.
func (t TaskType) Valid() bool {
	for _, v := range TaskTypes {
		if t == v {
			return true
		}
	}
	return false
}

// ParseTaskType maps s to a TaskType. Empty input yields DefaultTaskType.
func ParseTaskType(s string) (TaskType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultTaskType, nil
	}
	t := TaskType(s)
	if !t.Valid() {
		return "", fmt.Errorf("task_type must be one of %v", TaskTypes)
	}
	return t, nil
}

// Dimensions are the output widths supported by the Matryoshka-trained model.
var Dimensions = []int{64, 128, 256, 512, 768}

// MaxDimension is the largest entry of Dimensions.
const MaxDimension = 768

// ValidDimension reports whether d is an allowed output width.
func ValidDimension(d int) bool {
	for _, v := range Dimensions {
		if d == v {
			return true
		}
	}
	return false
}
