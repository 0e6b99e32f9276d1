package graph

//*******************************************
// graph structs
//*******************************************

type Coord [2]float64

type Node struct {
	ID  int64
	Loc Coord
}

// Edge is stored once per network link. Undirected edges are traversable from
// both ends, oneway edges only from NodeA to NodeB.
type Edge struct {
	ID         int64
	NodeA      int32
	NodeB      int32
	Impedance  float64
	Restricted bool
	Oneway     bool
	Modes      []TravelMode
	Length     float64
}

//*******************************************
// edgeref struct
//*******************************************

// EdgeRef is one adjacency entry as seen from a base node.
//
// Forward is true if the edge is traversed from NodeA to NodeB.
type EdgeRef struct {
	EdgeID  int32
	OtherID int32
	Forward bool
}

//*******************************************
// input records
//*******************************************

type NodeRecord struct {
	ID int64
	X  float64
	Y  float64
}

// EdgeRecord is the raw form of a network edge before validation.
//
// Geometry is optional, the straight segment between both endpoints is used if it is empty.
type EdgeRecord struct {
	ID         int64
	NodeA      int64
	NodeB      int64
	Impedance  float64
	Restricted bool
	ModeTags   []TravelMode
	Oneway     bool
	Geometry   []Coord
}
