package graph

//*******************************************
// adjacency array
//*******************************************

// _AdjacencyArray stores the outgoing adjacency of every node in CSR layout.
//
// Entries of a node are ordered by ascending edge index.
type _AdjacencyArray struct {
	first_out []int32
	edge_refs []EdgeRef
}

func _BuildTopology(node_count int, edges []Edge) _AdjacencyArray {
	degree := make([]int32, node_count+1)
	for _, edge := range edges {
		degree[edge.NodeA] += 1
		if !edge.Oneway {
			degree[edge.NodeB] += 1
		}
	}

	first_out := make([]int32, node_count+1)
	for i := 0; i < node_count; i++ {
		first_out[i+1] = first_out[i] + degree[i]
	}

	fill := make([]int32, node_count)
	copy(fill, first_out[:node_count])
	edge_refs := make([]EdgeRef, first_out[node_count])
	for id, edge := range edges {
		edge_refs[fill[edge.NodeA]] = EdgeRef{
			EdgeID:  int32(id),
			OtherID: edge.NodeB,
			Forward: true,
		}
		fill[edge.NodeA] += 1
		if !edge.Oneway {
			edge_refs[fill[edge.NodeB]] = EdgeRef{
				EdgeID:  int32(id),
				OtherID: edge.NodeA,
				Forward: false,
			}
			fill[edge.NodeB] += 1
		}
	}

	return _AdjacencyArray{
		first_out: first_out,
		edge_refs: edge_refs,
	}
}

func (self *_AdjacencyArray) GetAccessor() _AdjArrayAccessor {
	return _AdjArrayAccessor{
		topology: self,
	}
}

//*******************************************
// adjacency accessor
//*******************************************

// not thread safe, use only one instance per thread
type _AdjArrayAccessor struct {
	topology *_AdjacencyArray
	offset   int32
	end      int32
	curr     EdgeRef
}

func (self *_AdjArrayAccessor) SetBaseNode(node int32) {
	self.offset = self.topology.first_out[node]
	self.end = self.topology.first_out[node+1]
}

func (self *_AdjArrayAccessor) Next() bool {
	if self.offset >= self.end {
		return false
	}
	self.curr = self.topology.edge_refs[self.offset]
	self.offset += 1
	return true
}

func (self *_AdjArrayAccessor) GetEdgeRef() EdgeRef {
	return self.curr
}
