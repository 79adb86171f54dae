package diag

import "fmt"

// Kind is a diagnostic kind. Kinds print with the names used by annotated fixtures.
type Kind uint8

const (
	None Kind = iota
	TypeMismatch
	ExpectedParameterTypeMismatch
	TypeInferenceNoInformationForParameter
	TypeInferenceExpectedTypeMismatch
	OverloadResolutionAmbiguity
	UnresolvedReference
)

var kindNames = map[Kind]string{
	None:                                   "NONE",
	TypeMismatch:                           "TYPE_MISMATCH",
	ExpectedParameterTypeMismatch:          "EXPECTED_PARAMETER_TYPE_MISMATCH",
	TypeInferenceNoInformationForParameter: "TYPE_INFERENCE_NO_INFORMATION_FOR_PARAMETER",
	TypeInferenceExpectedTypeMismatch:      "TYPE_INFERENCE_EXPECTED_TYPE_MISMATCH",
	OverloadResolutionAmbiguity:            "OVERLOAD_RESOLUTION_AMBIGUITY",
	UnresolvedReference:                    "UNRESOLVED_REFERENCE",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// KindByName is the inverse of Kind.String
func KindByName(name string) (Kind, bool) {
	for kind, kindName := range kindNames {
		if kindName == name {
			return kind, true
		}
	}
	return None, false
}

type Severity uint8

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

// SeverityOf is the severity every Failure of kind k is reported with
func SeverityOf(k Kind) Severity {
	return Error
}
