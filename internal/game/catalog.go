package game

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalogYAML []byte

// Catalog is the static configuration consumed by the store: balance,
// roster, shop and per-character videos.
type Catalog struct {
	Game             GameConfig             `yaml:"game"`
	DefaultCharacter string                 `yaml:"defaultCharacter"`
	Characters       []CharacterConfig      `yaml:"characters"`
	Shop             []ShopItem             `yaml:"shop"`
	Videos           map[string][]VideoInfo `yaml:"videos"`
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// LoadCatalog loads and validates a catalog from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	cleanPath := filepath.Clean(path)
	b, err := os.ReadFile(cleanPath) //nolint:gosec // operator-supplied config path
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(b)
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(b []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if c.DefaultCharacter == "" {
		c.DefaultCharacter = DefaultCharacterID
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate reports every problem found in the catalog.
func (c *Catalog) Validate() error {
	var errs []error
	st := c.Game.Stamina
	if st.Max <= 0 {
		errs = append(errs, fmt.Errorf("stamina.max must be positive, got %d", st.Max))
	}
	if st.RegenRate <= 0 {
		errs = append(errs, fmt.Errorf("stamina.regenRate must be positive, got %d", st.RegenRate))
	}
	if st.RegenAmount < 0 {
		errs = append(errs, fmt.Errorf("stamina.regenAmount must not be negative, got %d", st.RegenAmount))
	}
	if st.CostPerClick <= 0 {
		errs = append(errs, fmt.Errorf("stamina.costPerClick must be positive, got %d", st.CostPerClick))
	}
	if c.Game.ProgressPerClick <= 0 {
		errs = append(errs, fmt.Errorf("progressPerClick must be positive, got %d", c.Game.ProgressPerClick))
	}
	if c.Game.WinThreshold <= 0 || c.Game.WinThreshold > 100 {
		errs = append(errs, fmt.Errorf("winThreshold must be in (0,100], got %d", c.Game.WinThreshold))
	}

	seen := map[string]bool{}
	for _, ch := range c.Characters {
		if ch.ID == "" {
			errs = append(errs, errors.New("character with empty id"))
			continue
		}
		if seen[ch.ID] {
			errs = append(errs, fmt.Errorf("duplicate character %q", ch.ID))
		}
		seen[ch.ID] = true
	}
	if !seen[c.DefaultCharacter] {
		errs = append(errs, fmt.Errorf("default character %q is not in the roster", c.DefaultCharacter))
	}

	items := map[string]bool{}
	for _, it := range c.Shop {
		if items[it.ID] {
			errs = append(errs, fmt.Errorf("duplicate shop item %q", it.ID))
		}
		items[it.ID] = true
		switch it.Type {
		case ItemStamina, ItemProgress, ItemOther:
		default:
			errs = append(errs, fmt.Errorf("shop item %q: unknown type %q", it.ID, it.Type))
		}
	}

	for charID, videos := range c.Videos {
		for _, v := range videos {
			if v.UnlockAt < 0 || v.UnlockAt > c.Game.WinThreshold {
				errs = append(errs, fmt.Errorf("video %s/%s: unlockAt %d out of range", charID, v.ID, v.UnlockAt))
			}
		}
	}
	return errors.Join(errs...)
}

// Item looks up a shop item.
func (c *Catalog) Item(id string) (ShopItem, bool) {
	for _, it := range c.Shop {
		if it.ID == id {
			return it, true
		}
	}
	return ShopItem{}, false
}

// Character returns the roster entry for id, falling back to the default
// character for unknown ids.
func (c *Catalog) Character(id string) CharacterConfig {
	var fallback CharacterConfig
	for _, ch := range c.Characters {
		if ch.ID == id {
			return ch
		}
		if ch.ID == c.DefaultCharacter {
			fallback = ch
		}
	}
	return fallback
}

// HasCharacter reports whether id is in the roster.
func (c *Catalog) HasCharacter(id string) bool {
	for _, ch := range c.Characters {
		if ch.ID == id {
			return true
		}
	}
	return false
}

func (c *Catalog) DisplayName(id string) string {
	return c.Character(id).DisplayName
}

// AvatarPath resolves the avatar image of a character.
func (c *Catalog) AvatarPath(id string) string {
	return AvatarPath(c.Character(id).ID)
}

// CharacterVideos returns a copy of the character's videos with static
// flags, or an empty list for unknown characters.
func (c *Catalog) CharacterVideos(characterID string) []VideoInfo {
	src := c.Videos[characterID]
	out := make([]VideoInfo, len(src))
	copy(out, src)
	return out
}

// UpdateVideoUnlockStatus returns the character's videos with IsUnlocked
// computed from progress.
func (c *Catalog) UpdateVideoUnlockStatus(characterID string, progress int) []VideoInfo {
	videos := c.CharacterVideos(characterID)
	for i := range videos {
		videos[i].IsUnlocked = progress >= videos[i].UnlockAt
	}
	return videos
}

func (c *Catalog) UnlockedVideoCount(characterID string, progress int) int {
	n := 0
	for _, v := range c.UpdateVideoUnlockStatus(characterID, progress) {
		if v.IsUnlocked {
			n++
		}
	}
	return n
}

func (c *Catalog) TotalVideoCount(characterID string) int {
	return len(c.Videos[characterID])
}

// VideoUnlocked reports whether videoID exists for the character and is
// unlocked at progress.
func (c *Catalog) VideoUnlocked(characterID, videoID string, progress int) bool {
	for _, v := range c.UpdateVideoUnlockStatus(characterID, progress) {
		if v.ID == videoID {
			return v.IsUnlocked
		}
	}
	return false
}

// VideoPath is the public URL of a character video.
func VideoPath(characterID, videoType string) string {
	return "/videos/" + characterID + "/" + videoType + ".mp4"
}

// AvatarPath is the public URL of a character avatar.
func AvatarPath(characterID string) string {
	return "/character/" + characterID + ".png"
}
