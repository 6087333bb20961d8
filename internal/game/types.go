package game

import "time"

// Well-known ids that carry rules of their own.
const (
	DefaultCharacterID = "shenmuli"
	DefaultVideoID     = "demo-video"
	HiddenVideoID      = "hidden-video"
	StaminaUpgradeID   = "stamina-upgrade"
)

// Fixed timings of the presentation contract.
const (
	HeartLifetime     = time.Second
	VictoryDelay      = 500 * time.Millisecond
	ProgressAnimation = 300 * time.Millisecond
)

// GameState is the whole mutable session record. It is owned by a Store and
// handed out only as a copy.
type GameState struct {
	CharacterProgress    int    `json:"characterProgress"`
	CurrentStamina       int    `json:"currentStamina"`
	MaxStamina           int    `json:"maxStamina"`
	IsWin                bool   `json:"isWin"`
	IsPlayingHiddenVideo bool   `json:"isPlayingHiddenVideo"`
	SelectedCharacter    string `json:"selectedCharacter"`
	CurrentVideoType     string `json:"currentVideoType"`
	IsFullscreenPlaying  bool   `json:"isFullscreenPlaying"`
}

// HeartEffect is a transient click marker. Timestamp is unix milliseconds.
type HeartEffect struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Timestamp int64   `json:"timestamp"`

	expiresAt time.Time
}

// ModalMode names the single modal the page may show.
type ModalMode string

const (
	ModalNone                ModalMode = "none"
	ModalInsufficientStamina ModalMode = "insufficient-stamina"
	ModalShop                ModalMode = "shop"
	ModalVictory             ModalMode = "victory"
	ModalDeveloping          ModalMode = "developing"
)

func (m ModalMode) Valid() bool {
	switch m {
	case ModalNone, ModalInsufficientStamina, ModalShop, ModalVictory, ModalDeveloping:
		return true
	}
	return false
}

// ItemType classifies what a shop item changes.
type ItemType string

const (
	ItemStamina  ItemType = "stamina"
	ItemProgress ItemType = "progress"
	ItemOther    ItemType = "other"
)

// Effect is the payload of a shop item. Zero fields have no effect.
type Effect struct {
	Stamina  int `yaml:"stamina,omitempty" json:"stamina,omitempty"`
	Progress int `yaml:"progress,omitempty" json:"progress,omitempty"`
}

// ShopItem is a static catalog entry.
type ShopItem struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Price       int      `yaml:"price" json:"price"`
	Type        ItemType `yaml:"type" json:"type"`
	Effect      Effect   `yaml:"effect" json:"effect"`
}

// StaminaSystem holds the stamina balance. RegenRate is in seconds.
type StaminaSystem struct {
	Max          int `yaml:"max" json:"max"`
	RegenRate    int `yaml:"regenRate" json:"regenRate"`
	RegenAmount  int `yaml:"regenAmount" json:"regenAmount"`
	CostPerClick int `yaml:"costPerClick" json:"costPerClick"`
}

func (s StaminaSystem) RegenInterval() time.Duration {
	return time.Duration(s.RegenRate) * time.Second
}

// GameConfig is the balance applied by a Store.
type GameConfig struct {
	Stamina          StaminaSystem `yaml:"stamina" json:"staminaSystem"`
	ProgressPerClick int           `yaml:"progressPerClick" json:"progressPerClick"`
	WinThreshold     int           `yaml:"winThreshold" json:"winThreshold"`
}

// CharacterConfig describes one entry of the roster.
type CharacterConfig struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	DisplayName string `yaml:"displayName" json:"displayName"`
	IsUnlocked  bool   `yaml:"isUnlocked" json:"isUnlocked"`
	Description string `yaml:"description" json:"description"`
}

// VideoInfo is a catalog video. IsUnlocked is derived from progress on every
// read; UnlockAt is the progress it needs.
type VideoInfo struct {
	ID              string `yaml:"id" json:"id"`
	Name            string `yaml:"name" json:"name"`
	FileName        string `yaml:"fileName" json:"fileName"`
	IsUnlocked      bool   `yaml:"-" json:"isUnlocked"`
	UnlockCondition string `yaml:"unlockCondition" json:"unlockCondition,omitempty"`
	UnlockAt        int    `yaml:"unlockAt" json:"-"`
}
