package ledger

import (
	"fmt"

	"github.com/tolelom/snakegame/core"
)

// Collectible is the capability the engine needs from an NFT collection.
type Collectible interface {
	Mint(to string, mintedAt int64) (uint64, error)
	Burn(owner string, id uint64) error
	BalanceOf(owner string) (uint64, error)
	TokenOfOwnerByIndex(owner string, index uint64) (uint64, error)
}

// NftCollection is a state-backed NFT collection. Token ids start at 1 and
// are never reused.
type NftCollection struct {
	state core.State
	id    string
	uris  []string
}

var _ Collectible = (*NftCollection)(nil)

// NewNftCollection returns the collection id. Minted tokens cycle through uris.
func NewNftCollection(state core.State, id string, uris []string) *NftCollection {
	return &NftCollection{state: state, id: id, uris: uris}
}

// URIFor returns the metadata URI assigned to token id.
func (c *NftCollection) URIFor(id uint64) string {
	if len(c.uris) == 0 || id == 0 {
		return ""
	}
	return c.uris[(id-1)%uint64(len(c.uris))]
}

func (c *NftCollection) Mint(to string, mintedAt int64) (uint64, error) {
	coll, err := c.state.GetCollection(c.id)
	if err != nil {
		return 0, err
	}
	id := coll.NextID
	nft := &core.Nft{
		Collection: c.id,
		ID:         id,
		Owner:      to,
		URI:        c.URIFor(id),
		MintedAt:   mintedAt,
	}
	if err := c.state.SetNft(nft); err != nil {
		return 0, err
	}
	coll.NextID++
	coll.Supply++
	if err := c.state.SetCollection(coll); err != nil {
		return 0, err
	}
	return id, nil
}

// Burn destroys token id, which must belong to owner.
func (c *NftCollection) Burn(owner string, id uint64) error {
	nft, err := c.state.GetNft(c.id, id)
	if err != nil {
		return err
	}
	if nft.Owner != owner {
		return fmt.Errorf("burn %s#%d: not owned by caller: %w", c.id, id, core.ErrUnauthorized)
	}
	if err := c.state.DeleteNft(c.id, id); err != nil {
		return err
	}
	coll, err := c.state.GetCollection(c.id)
	if err != nil {
		return err
	}
	coll.Supply--
	return c.state.SetCollection(coll)
}

func (c *NftCollection) BalanceOf(owner string) (uint64, error) {
	ids, err := c.state.OwnedNfts(c.id, owner)
	if err != nil {
		return 0, err
	}
	return uint64(len(ids)), nil
}

func (c *NftCollection) TokenOfOwnerByIndex(owner string, index uint64) (uint64, error) {
	ids, err := c.state.OwnedNfts(c.id, owner)
	if err != nil {
		return 0, err
	}
	if index >= uint64(len(ids)) {
		return 0, fmt.Errorf("%s owner index %d out of range: %w", c.id, index, core.ErrNotFound)
	}
	return ids[index], nil
}

// Tokens returns every token owned by owner.
func (c *NftCollection) Tokens(owner string) ([]*core.Nft, error) {
	ids, err := c.state.OwnedNfts(c.id, owner)
	if err != nil {
		return nil, err
	}
	out := make([]*core.Nft, 0, len(ids))
	for _, id := range ids {
		n, err := c.state.GetNft(c.id, id)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
