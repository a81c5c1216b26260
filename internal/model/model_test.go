package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_VerifiedAt(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Minute)
	past := now.Add(-time.Second)

	assert.False(t, (&User{}).VerifiedAt(now))
	assert.True(t, (&User{VerifiedUntil: &future}).VerifiedAt(now))
	assert.False(t, (&User{VerifiedUntil: &past}).VerifiedAt(now), "expired windows read as unverified")
}

func TestUser_JSONHidesSecrets(t *testing.T) {
	u := User{ID: 1, Username: "ann", PasswordHashed: "hash", ProfilePhotoKey: "k", Followers: []int64{2}}
	b, err := json.Marshal(u)
	require.NoError(t, err)

	s := string(b)
	assert.NotContains(t, s, "hash")
	assert.NotContains(t, s, "profile_photo_key")
	assert.Contains(t, s, `"followers":[2]`)
}

func TestPost_LikedBy(t *testing.T) {
	p := Post{Likes: []int64{3, 5}}
	assert.True(t, p.LikedBy(5))
	assert.False(t, p.LikedBy(4))
}

func TestIsAllowedImageType(t *testing.T) {
	for _, ct := range []string{"image/jpeg", "image/png", "image/gif", "image/webp"} {
		assert.True(t, IsAllowedImageType(ct), ct)
	}
	assert.False(t, IsAllowedImageType("image/svg+xml"))
	assert.False(t, IsAllowedImageType("application/pdf"))
}
