package entities

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestInterfacePatchMarshal(t *testing.T) {
	patch := NewInterfacePatch(42)
	patch.Set("enabled", false)
	patch.Set("untagged_vlan", nil)

	data, err := json.Marshal(patch)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded["id"] != float64(42) {
		t.Errorf("unexpected id: %v", decoded["id"])
	}
	if decoded["enabled"] != false {
		t.Errorf("unexpected enabled: %v", decoded["enabled"])
	}
	if value, present := decoded["untagged_vlan"]; !present || value != nil {
		t.Errorf("untagged_vlan should be serialized as null, got %v (present=%v)", value, present)
	}
}

func TestInterfacePatchChanged(t *testing.T) {
	patch := NewInterfacePatch(1)
	if !patch.Empty() {
		t.Fatal("new patch should be empty")
	}
	patch.Set("mode", "tagged")
	patch.Set("description", "uplink")
	if patch.Empty() {
		t.Fatal("patch with fields should not be empty")
	}
	if got := patch.Changed(); !reflect.DeepEqual(got, []string{"description", "mode"}) {
		t.Errorf("unexpected changed fields: %v", got)
	}
}
