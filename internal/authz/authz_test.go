package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func uintPtr(v uint) *uint { return &v }

func TestCanViewGame(t *testing.T) {
	const admin uint = 1

	tests := []struct {
		name     string
		viewer   *uint
		private  bool
		isMember bool
		want     bool
	}{
		{name: "public game, anonymous viewer", viewer: nil, private: false, want: true},
		{name: "public game, any viewer", viewer: uintPtr(9), private: false, want: true},
		{name: "private game, anonymous viewer", viewer: nil, private: true, want: false},
		{name: "private game, unrelated viewer", viewer: uintPtr(9), private: true, want: false},
		{name: "private game, admin", viewer: uintPtr(admin), private: true, want: true},
		{name: "private game, member", viewer: uintPtr(9), private: true, isMember: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanViewGame(tt.viewer, admin, tt.private, tt.isMember))
		})
	}
}

func TestCanMutateGame(t *testing.T) {
	const admin uint = 1

	assert.True(t, CanMutateGame(uintPtr(admin), admin))
	assert.False(t, CanMutateGame(uintPtr(2), admin))
	assert.False(t, CanMutateGame(nil, admin))
}

func TestCanEditProfile(t *testing.T) {
	const owner uint = 7

	assert.True(t, CanEditProfile(uintPtr(owner), owner))
	assert.False(t, CanEditProfile(uintPtr(8), owner))
	assert.False(t, CanEditProfile(nil, owner))
}
