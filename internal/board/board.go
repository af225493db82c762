// Package board implements the one-off board randomization routine: tiles are
// scattered over tiered coordinate slots read from a static data file, then
// per-player jail tiles are placed. It has no interaction with the chat
// subsystem beyond sharing the process.
package board

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
)

// Tile is a placeable board piece.
type Tile struct {
	ID   int    `json:"Id"`
	Name string `json:"Name"`
}

// Coordinate is a board slot position.
type Coordinate struct {
	Vertical   int `json:"Vertical"`
	Horizontal int `json:"Horizontal"`
}

// Players holds the jail coordinate sets per supported player count.
type Players struct {
	Player2 []Coordinate `json:"Player2"`
	Player3 []Coordinate `json:"Player3"`
	Player4 []Coordinate `json:"Player4"`
	Player5 []Coordinate `json:"Player5"`
	Player6 []Coordinate `json:"Player6"`
}

// Coordinates groups the tiered slot lists and the player jail sets.
type Coordinates struct {
	Players Players      `json:"Players"`
	Tier0   []Coordinate `json:"Tier0"`
	Tier1   []Coordinate `json:"Tier1"`
	Tier2   []Coordinate `json:"Tier2"`
}

// GameData is the parsed static data file.
type GameData struct {
	Jails       []Tile      `json:"Jails"`
	Tiles       []Tile      `json:"Tiles"`
	Coordinates Coordinates `json:"Coordinates"`
}

// Placement assigns one tile to one coordinate.
type Placement struct {
	Coordinate Coordinate `json:"coordinate"`
	Tile       Tile       `json:"tile"`
}

// Tile ids with special placement rules.
const (
	tileIDTier0Fixed = 7
	tileIDTier1Only  = 8
)

// Load reads and parses the game data file.
func Load(path string) (*GameData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read game data: %w", err)
	}

	var game GameData
	if err := json.Unmarshal(raw, &game); err != nil {
		return nil, fmt.Errorf("parse game data: %w", err)
	}
	return &game, nil
}

// Generate builds a randomized board for the given player count (2 through
// 6). Tile 7 always lands on a tier-0 slot; tile 8 on a random tier-1 slot;
// every other tile on a random tier-1 slot, falling back to tier 2 once tier
// 1 is exhausted. Jails are then placed on the player-count-specific
// coordinates, each consuming a random remaining jail tile.
func Generate(game *GameData, playerCount int) ([]Placement, error) {
	jailSlots, err := jailCoordinates(game, playerCount)
	if err != nil {
		return nil, err
	}

	tier0 := append([]Coordinate(nil), game.Coordinates.Tier0...)
	tier1 := append([]Coordinate(nil), game.Coordinates.Tier1...)
	tier2 := append([]Coordinate(nil), game.Coordinates.Tier2...)

	placements := make([]Placement, 0, len(game.Tiles)+len(jailSlots))
	for _, tile := range game.Tiles {
		var slot Coordinate
		switch tile.ID {
		case tileIDTier0Fixed:
			if len(tier0) == 0 {
				return nil, fmt.Errorf("no tier-0 slots left for tile %d", tile.ID)
			}
			slot, tier0 = takeLast(tier0)
		case tileIDTier1Only:
			if len(tier1) == 0 {
				return nil, fmt.Errorf("no tier-1 slots left for tile %d", tile.ID)
			}
			slot, tier1 = takeRandom(tier1)
		default:
			if len(tier1) > 0 {
				slot, tier1 = takeRandom(tier1)
			} else if len(tier2) > 0 {
				slot, tier2 = takeRandom(tier2)
			} else {
				return nil, fmt.Errorf("no slots left for tile %d", tile.ID)
			}
		}
		placements = append(placements, Placement{Coordinate: slot, Tile: tile})
	}

	jails := append([]Tile(nil), game.Jails...)
	for _, slot := range jailSlots {
		if len(jails) == 0 {
			return nil, fmt.Errorf("not enough jail tiles for %d players", playerCount)
		}
		var jail Tile
		jail, jails = takeRandomTile(jails)
		placements = append(placements, Placement{Coordinate: slot, Tile: jail})
	}

	return placements, nil
}

func jailCoordinates(game *GameData, playerCount int) ([]Coordinate, error) {
	players := game.Coordinates.Players
	switch playerCount {
	case 2:
		return players.Player2, nil
	case 3:
		return players.Player3, nil
	case 4:
		return players.Player4, nil
	case 5:
		return players.Player5, nil
	case 6:
		return players.Player6, nil
	default:
		return nil, fmt.Errorf("unsupported player count %d", playerCount)
	}
}

// takeRandom removes and returns a uniformly chosen slot. The index covers
// the full range, so a tier with exactly one remaining slot is still usable.
func takeRandom(slots []Coordinate) (Coordinate, []Coordinate) {
	n := rand.IntN(len(slots))
	picked := slots[n]
	slots[n] = slots[len(slots)-1]
	return picked, slots[:len(slots)-1]
}

func takeLast(slots []Coordinate) (Coordinate, []Coordinate) {
	return slots[len(slots)-1], slots[:len(slots)-1]
}

func takeRandomTile(tiles []Tile) (Tile, []Tile) {
	n := rand.IntN(len(tiles))
	picked := tiles[n]
	tiles[n] = tiles[len(tiles)-1]
	return picked, tiles[:len(tiles)-1]
}
