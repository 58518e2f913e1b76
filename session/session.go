// Package session implements the permanent master-key cache: a session
// file that wraps the derived master key so a vault does not reprompt for
// its password on every invocation, plus a short-lived password-bound mode
// for the `unlock --duration` path.
//
// The cache is a single 0600 file under the registry's sessions
// directory, trusted only for the current OS user -- no daemon, no
// socket, no cross-process negotiation.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ladzaretti/bunker/util"
	"github.com/ladzaretti/bunker/vaultcrypto"
	"github.com/ladzaretti/bunker/vaulterrors"

	"github.com/google/uuid"
)

// permanentLifetime is "10 years from now", this package's definition of
// an effectively-unbounded permanent session.
const permanentLifetime = 10 * 365 * 24 * time.Hour

// Session is the on-disk record at <base>/sessions/<vault>.session.
type Session struct {
	ID        uuid.UUID `json:"id"`
	Vault     string    `json:"vault"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`

	Verifier string   `json:"verifier"`
	Wrapped  []byte   `json:"wrapped"`
	Nonce    []byte   `json:"nonce"`
	Salt     []byte   `json:"salt"`
}

// Keeper manages the session file for one vault.
type Keeper struct {
	path      string // directory containing *.session files
	vaultName string
	vaultID   uuid.UUID
}

// NewKeeper returns a Keeper for vaultName/vaultID, storing its session
// file under sessionsDir.
func NewKeeper(sessionsDir, vaultName string, vaultID uuid.UUID) *Keeper {
	return &Keeper{path: sessionsDir, vaultName: vaultName, vaultID: vaultID}
}

func (k *Keeper) sessionPath() string {
	return filepath.Join(k.path, k.vaultName+".session")
}

// CreatePermanent wraps mk under a key derived from the vault id and
// persists a permanent Session.
func (k *Keeper) CreatePermanent(mk vaultcrypto.MasterKey) error {
	verifier := k.vaultID.String()

	return k.createWrapped(verifier, []byte(verifier), mk, permanentLifetime)
}

// CreatePasswordBound wraps mk under a key derived from password and
// persists a short-lived Session whose verifier is an Argon2id password
// hash, the mode selected when `unlock --duration` is passed.
func (k *Keeper) CreatePasswordBound(password []byte, mk vaultcrypto.MasterKey, duration time.Duration) error {
	verifier, err := vaultcrypto.HashPassword(password, vaultcrypto.DefaultArgon2Params)
	if err != nil {
		return vaulterrors.ErrKdfFailure
	}

	return k.createWrapped(verifier, password, mk, duration)
}

func (k *Keeper) createWrapped(verifier string, wrapSecret []byte, mk vaultcrypto.MasterKey, lifetime time.Duration) error {
	salt, err := vaultcrypto.RandBytes(vaultcrypto.SaltSize)
	if err != nil {
		return vaulterrors.ErrEncryptFailure
	}

	wrapKey, err := vaultcrypto.DeriveKey(wrapSecret, salt, vaultcrypto.DefaultArgon2Params)
	if err != nil {
		return vaulterrors.ErrKdfFailure
	}
	defer wrapKey.Clear()

	ev, err := vaultcrypto.Encrypt(mk.Bytes(), wrapKey)
	if err != nil {
		return vaulterrors.ErrEncryptFailure
	}

	now := time.Now()

	s := Session{
		ID:        uuid.New(),
		Vault:     k.vaultName,
		CreatedAt: now,
		ExpiresAt: now.Add(lifetime),
		Verifier:  verifier,
		Wrapped:   ev.Ciphertext,
		Nonce:     ev.Nonce,
		Salt:      salt,
	}

	return k.write(s)
}

func (k *Keeper) write(s Session) error {
	if err := os.MkdirAll(k.path, 0o700); err != nil {
		return fmt.Errorf("%w: %v", vaulterrors.ErrIO, err)
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("%w: %v", vaulterrors.ErrSerialization, err)
	}

	if err := util.AtomicWriteFile(k.sessionPath(), data, 0o600); err != nil {
		return fmt.Errorf("%w: %v", vaulterrors.ErrIO, err)
	}

	return nil
}

// Load reads the session file and recovers the master key. A permanent
// session recomputes the wrapping key from the vault id; callers of a
// password-bound session must supply the original password via wrapSecret.
func (k *Keeper) Load(wrapSecret []byte) (vaultcrypto.MasterKey, error) {
	s, err := k.read()
	if err != nil {
		return vaultcrypto.MasterKey{}, err
	}

	if time.Now().After(s.ExpiresAt) {
		_ = k.Lock()
		return vaultcrypto.MasterKey{}, vaulterrors.ErrSessionExpired
	}

	wrapKey, err := vaultcrypto.DeriveKey(wrapSecret, s.Salt, vaultcrypto.DefaultArgon2Params)
	if err != nil {
		return vaultcrypto.MasterKey{}, vaulterrors.ErrKdfFailure
	}
	defer wrapKey.Clear()

	raw, err := vaultcrypto.Decrypt(vaultcrypto.EncryptedValue{Nonce: s.Nonce, Ciphertext: s.Wrapped}, wrapKey)
	if err != nil {
		return vaultcrypto.MasterKey{}, vaulterrors.ErrDecryptFailure
	}
	defer vaultcrypto.SecureClear(raw)

	return vaultcrypto.NewMasterKey(raw), nil
}

// LoadPermanent is [Keeper.Load] for the default, vault-id-keyed session
// mode: it derives the wrapping secret from the vault id itself.
func (k *Keeper) LoadPermanent() (vaultcrypto.MasterKey, error) {
	return k.Load([]byte(k.vaultID.String()))
}

func (k *Keeper) read() (Session, error) {
	data, err := os.ReadFile(k.sessionPath())
	if err != nil {
		if os.IsNotExist(err) {
			return Session{}, vaulterrors.ErrNoSession
		}

		return Session{}, fmt.Errorf("%w: %v", vaulterrors.ErrIO, err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("%w: %v", vaulterrors.ErrSerialization, err)
	}

	return s, nil
}

// Lock deletes the session file.
func (k *Keeper) Lock() error {
	if err := os.Remove(k.sessionPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", vaulterrors.ErrIO, err)
	}

	return nil
}

// Exists reports whether a (possibly expired) session file is present.
func (k *Keeper) Exists() bool {
	_, err := os.Stat(k.sessionPath())
	return err == nil
}
