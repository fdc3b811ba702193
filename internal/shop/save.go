package shop

import (
	"encoding/json"
	"errors"
	"fmt"
)

// SaveFormatVersion is written into every save record.
const SaveFormatVersion = 1

const (
	DefaultPlayerName  = "Player"
	DefaultAvatarStyle = "pixel-art"
	DefaultAvatarSeed  = "player-default"
)

// ErrCorruptSave is returned when a save record does not have the expected shape.
var ErrCorruptSave = errors.New("invalid save data format")

// Profile is the player's display identity.
type Profile struct {
	PlayerName  string `json:"playerName"`
	AvatarStyle string `json:"avatarStyle"`
	AvatarSeed  string `json:"avatarSeed"`
}

// DefaultProfile returns the profile a fresh game starts with.
func DefaultProfile() Profile {
	return Profile{
		PlayerName:  DefaultPlayerName,
		AvatarStyle: DefaultAvatarStyle,
		AvatarSeed:  DefaultAvatarSeed,
	}
}

// SaveState is the single persisted record.
type SaveState struct {
	Cash        int             `json:"playerCash"`
	Inventory   []InventoryItem `json:"shopInventory"`
	PlayerName  string          `json:"playerName"`
	AvatarStyle string          `json:"currentAvatarStyle"`
	AvatarSeed  string          `json:"playerAvatarSeed"`
	Version     int             `json:"saveFormatVersion"`
}

// Profile extracts the player profile from the record.
func (s SaveState) Profile() Profile {
	return Profile{PlayerName: s.PlayerName, AvatarStyle: s.AvatarStyle, AvatarSeed: s.AvatarSeed}
}

// EncodeSave serializes a save record.
func EncodeSave(s SaveState) ([]byte, error) {
	if s.Inventory == nil {
		s.Inventory = []InventoryItem{}
	}
	if s.Version == 0 {
		s.Version = SaveFormatVersion
	}
	return json.Marshal(s)
}

// DecodeSave parses and validates a save record: cash must be a number,
// inventory an array and the player name a string. Anything else is corrupt.
// Missing avatar settings fall back to the defaults.
func DecodeSave(data []byte) (SaveState, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return SaveState{}, fmt.Errorf("%w: %v", ErrCorruptSave, err)
	}
	if _, ok := raw["playerCash"].(float64); !ok {
		return SaveState{}, fmt.Errorf("%w: playerCash is not a number", ErrCorruptSave)
	}
	if _, ok := raw["shopInventory"].([]any); !ok {
		return SaveState{}, fmt.Errorf("%w: shopInventory is not an array", ErrCorruptSave)
	}
	if _, ok := raw["playerName"].(string); !ok {
		return SaveState{}, fmt.Errorf("%w: playerName is not a string", ErrCorruptSave)
	}

	var s SaveState
	if err := json.Unmarshal(data, &s); err != nil {
		return SaveState{}, fmt.Errorf("%w: %v", ErrCorruptSave, err)
	}
	if s.AvatarStyle == "" {
		s.AvatarStyle = DefaultAvatarStyle
	}
	if s.AvatarSeed == "" {
		s.AvatarSeed = DefaultAvatarSeed
	}
	return s, nil
}
