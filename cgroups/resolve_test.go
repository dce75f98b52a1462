package cgroups

import (
	"testing"

	"runc-go/spec"
)

func TestIsSystemdPath(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"system.slice:runc-go:abc123", true},
		{"/sys/fs/cgroup/foo", false},
		{"", false},
		{"a:b", false},
		{"a::c", false},
		{"a:b:c:d", false},
	}
	for _, tc := range cases {
		if got := IsSystemdPath(tc.path); got != tc.want {
			t.Errorf("IsSystemdPath(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestResolveSystemdFlagWins(t *testing.T) {
	got := Resolve(ResolveOptions{SystemdCgroup: true, CgroupsPath: "/some/path"})
	if got != spec.CgroupBackendSystemd {
		t.Errorf("got %s, want %s", got, spec.CgroupBackendSystemd)
	}
}

func TestResolveSystemdPathImpliesSystemd(t *testing.T) {
	got := Resolve(ResolveOptions{CgroupsPath: "system.slice:runc-go:abc123"})
	if got != spec.CgroupBackendSystemd {
		t.Errorf("got %s, want %s", got, spec.CgroupBackendSystemd)
	}
}

func TestResolveFallsBackToV1OrV2(t *testing.T) {
	got := Resolve(ResolveOptions{CgroupsPath: "/runc-go/abc123"})
	if got != spec.CgroupBackendV1 && got != spec.CgroupBackendV2 {
		t.Errorf("got %s, want v1 or v2 depending on host mode", got)
	}
}
