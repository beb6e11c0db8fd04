// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveValueWholeMatchPreservesType(t *testing.T) {
	r := newResolver(map[string]interface{}{"name": "world"})
	outputs := map[string]interface{}{
		"fetch": map[string]interface{}{"items": []interface{}{"a", "b"}},
	}

	got, err := r.resolveValue(context.Background(), "$fetch.output", outputs)
	require.NoError(t, err)
	assert.Equal(t, outputs["fetch"], got)
}

func TestResolveValueFieldPath(t *testing.T) {
	r := newResolver(nil)
	outputs := map[string]interface{}{
		"fetch": map[string]interface{}{"items": []interface{}{"a", "b"}},
	}

	got, err := r.resolveValue(context.Background(), "$fetch.output.items", outputs)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"a", "b"}, got)
}

func TestResolveValueEmbeddedInterpolatesAsText(t *testing.T) {
	r := newResolver(map[string]interface{}{"name": "world"})

	got, err := r.resolveValue(context.Background(), "hello, $inputs.name!", map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, "hello, world!", got)
}

func TestResolveValueMapAndSliceLeaves(t *testing.T) {
	r := newResolver(map[string]interface{}{"x": "1"})
	input := map[string]interface{}{
		"a": []interface{}{"$inputs.x", "literal"},
		"b": map[string]interface{}{"c": "$inputs.x"},
	}

	got, err := r.resolveValue(context.Background(), input, map[string]interface{}{})
	require.NoError(t, err)
	m := got.(map[string]interface{})
	assert.Equal(t, []interface{}{"1", "literal"}, m["a"])
	assert.Equal(t, map[string]interface{}{"c": "1"}, m["b"])
}

func TestResolveValueUnknownStepErrors(t *testing.T) {
	r := newResolver(nil)
	_, err := r.resolveValue(context.Background(), "$missing.output", map[string]interface{}{})
	require.Error(t, err)
}

func TestEvalConditionEmptyIsTrue(t *testing.T) {
	ok, err := evalCondition("", nil, nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvalConditionAgainstInputsAndSteps(t *testing.T) {
	ok, err := evalCondition(`inputs.ready == true && steps.check.passed`,
		map[string]interface{}{"ready": true},
		map[string]interface{}{"check": map[string]interface{}{"passed": true}})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = evalCondition(`inputs.ready == true`, map[string]interface{}{"ready": false}, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}
