// Package custody derives escrow signing authorities. A vault's
// authority is never a live key: it is recomputed from the service
// seed, the bond identity, and the tag stored on the deposit record.
package custody

import (
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"

	"bondgate/internal/token"
	id "bondgate/pkg/domain"
)

// Deriver produces deterministic authorities from a service-wide seed.
type Deriver struct {
	seed []byte
}

func NewDeriver(seed []byte) (*Deriver, error) {
	if len(seed) == 0 {
		return nil, fmt.Errorf("custody seed must not be empty")
	}
	return &Deriver{seed: append([]byte{}, seed...)}, nil
}

// Tags picks the derivation tag pair recorded on a new deposit. The
// tags are stable for a given bond so re-registration attempts derive
// the same authority.
func (d *Deriver) Tags(bondID id.BondID) (authorityTag, vaultTag byte) {
	h := sha256.New()
	h.Write(d.seed)
	u := uuid.UUID(bondID)
	h.Write(u[:])
	sum := h.Sum(nil)
	return sum[0], sum[1]
}

// DeriveAuthority recomputes the vault signing authority from the
// stored tag. Redeem passes the deposit's tag through unchanged.
func (d *Deriver) DeriveAuthority(bondID id.BondID, tag byte) (token.Authority, error) {
	u := uuid.UUID(bondID)
	info := append([]byte("bondgate/vault/"), u[:]...)
	info = append(info, tag)
	r := hkdf.New(sha256.New, d.seed, nil, info)
	var authority token.Authority
	if _, err := io.ReadFull(r, authority[:]); err != nil {
		return token.Authority{}, fmt.Errorf("derive vault authority: %w", err)
	}
	return authority, nil
}

// CallerAuthority derives the authority an investor exercises over
// their own custody account.
func (d *Deriver) CallerAuthority(owner id.InvestorID) (token.Authority, error) {
	u := uuid.UUID(owner)
	info := append([]byte("bondgate/caller/"), u[:]...)
	r := hkdf.New(sha256.New, d.seed, nil, info)
	var authority token.Authority
	if _, err := io.ReadFull(r, authority[:]); err != nil {
		return token.Authority{}, fmt.Errorf("derive caller authority: %w", err)
	}
	return authority, nil
}
