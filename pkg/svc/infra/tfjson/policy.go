package tfjson

import (
	"encoding/json"
)

// Statement is one IAM policy statement.
type Statement struct {
	Effect    string                       `json:"Effect"`
	Action    []string                     `json:"Action"`
	Resource  []string                     `json:"Resource,omitempty"`
	Principal map[string]string            `json:"Principal,omitempty"`
	Condition map[string]map[string]string `json:"Condition,omitempty"`
}

type policyDocument struct {
	Version   string      `json:"Version"`
	Statement []Statement `json:"Statement"`
}

// Policy renders an IAM policy document as the JSON string Terraform expects in
// assume_role_policy and policy attributes.
func Policy(statements ...Statement) string {
	data, err := json.Marshal(policyDocument{Version: "2012-10-17", Statement: statements})
	if err != nil {
		// Statement only carries strings, string maps, and string slices.
		panic(err)
	}

	return string(data)
}

// AssumeRolePolicy allows the given service principal to assume a role.
func AssumeRolePolicy(service string) string {
	return Policy(Statement{
		Effect:    "Allow",
		Action:    []string{"sts:AssumeRole"},
		Principal: map[string]string{"Service": service},
	})
}
