// Package world provides the square tile grid, terrain kinds, and tile contents
// the miner reasons about.
package world

// TileKind is the terrain category of a tile.
type TileKind uint8

const (
	DeepWater    TileKind = iota // Default for unknown cells
	ShallowWater                 // Pavable with two rocks
	Sand
	Grass
	Street // Result of paving
	Hill
	Mountain
	Snow
	Lava
	Teleport
	Wall
)

// IsWalkable reports whether an agent can stand on a tile of this kind.
// Deep water, shallow water and lava are the only blocking kinds.
func IsWalkable(kind TileKind) bool {
	switch kind {
	case DeepWater, Lava, ShallowWater:
		return false
	default:
		return true
	}
}

// WalkCost is the energy spent stepping onto a tile of this kind.
// Non-walkable kinds return -1.
func (k TileKind) WalkCost() int {
	switch k {
	case Street, Grass, Teleport:
		return 1
	case Sand:
		return 2
	case Hill, Snow:
		return 3
	case Wall:
		return 4
	case Mountain:
		return 5
	default:
		return -1
	}
}

// String returns a human-readable name for a tile kind.
func (k TileKind) String() string {
	switch k {
	case DeepWater:
		return "DeepWater"
	case ShallowWater:
		return "ShallowWater"
	case Sand:
		return "Sand"
	case Grass:
		return "Grass"
	case Street:
		return "Street"
	case Hill:
		return "Hill"
	case Mountain:
		return "Mountain"
	case Snow:
		return "Snow"
	case Lava:
		return "Lava"
	case Teleport:
		return "Teleport"
	case Wall:
		return "Wall"
	default:
		return "Unknown"
	}
}

// ContentKind enumerates what may occupy a tile.
type ContentKind uint8

const (
	ContentNone ContentKind = iota
	ContentRock
	ContentTree
	ContentGarbage
	ContentFire
	ContentCoin
	ContentBin
	ContentCrate
	ContentBank
	ContentWater
	ContentMarket
	ContentFish
	ContentBuilding
	ContentBush
	ContentJollyBlock
	ContentScarecrow
)

// Harvestable reports whether Destroy can collect content of this kind.
func (c ContentKind) Harvestable() bool {
	switch c {
	case ContentRock, ContentTree, ContentGarbage, ContentFire, ContentCoin,
		ContentWater, ContentFish, ContentBush, ContentJollyBlock:
		return true
	default:
		return false
	}
}

func (c ContentKind) String() string {
	switch c {
	case ContentNone:
		return "None"
	case ContentRock:
		return "Rock"
	case ContentTree:
		return "Tree"
	case ContentGarbage:
		return "Garbage"
	case ContentFire:
		return "Fire"
	case ContentCoin:
		return "Coin"
	case ContentBin:
		return "Bin"
	case ContentCrate:
		return "Crate"
	case ContentBank:
		return "Bank"
	case ContentWater:
		return "Water"
	case ContentMarket:
		return "Market"
	case ContentFish:
		return "Fish"
	case ContentBuilding:
		return "Building"
	case ContentBush:
		return "Bush"
	case ContentJollyBlock:
		return "JollyBlock"
	case ContentScarecrow:
		return "Scarecrow"
	default:
		return "Unknown"
	}
}

// Content is the object or resource sitting on a tile.
type Content struct {
	Kind   ContentKind `json:"kind"`
	Amount int         `json:"amount"`
}

// Tile is an immutable per-cell snapshot.
type Tile struct {
	Kind      TileKind `json:"kind"`
	Content   Content  `json:"content"`
	Elevation int      `json:"elevation"`
}

// Unknown is the placeholder used for cells the agent has not discovered.
var Unknown = Tile{Kind: DeepWater}
