package main

import (
	"path/filepath"
	"testing"

	"solwallet/storage"
	"solwallet/wallet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProfile(t *testing.T) {
	db, err := storage.ConnectPath(filepath.Join(t.TempDir(), "profiles.json"))
	require.NoError(t, err)

	mnemonic, publicKey, err := createProfile(db, "alice")
	require.NoError(t, err)
	assert.True(t, wallet.IsMnemonicValid(mnemonic))
	assert.NotEmpty(t, publicKey)

	// The stored seed must stay intact after the local copy is wiped: a
	// wallet reopened from the profile derives the same first account.
	profile, err := db.GetProfile("alice")
	require.NoError(t, err)
	manager, err := wallet.New(profile.Seed, wallet.Config{})
	require.NoError(t, err)
	defer manager.Close()

	account, err := manager.Account(0)
	require.NoError(t, err)
	assert.Equal(t, publicKey, account.PublicKey().String())
}
