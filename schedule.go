package byke

import (
	"errors"
	"fmt"

	"github.com/oliverbestmann/bykeblend/internal/set"
)

// Schedule is a set of systems executed in a stable, topological order.
type Schedule struct {
	lookup  map[SystemId]*preparedSystem
	order   []SystemId
	systems []*preparedSystem
}

func NewSchedule() *Schedule {
	return &Schedule{
		lookup: map[SystemId]*preparedSystem{},
	}
}

func (s *Schedule) addSystem(system *preparedSystem) error {
	if _, exists := s.lookup[system.Id]; exists {
		return errors.New("system already exists")
	}

	s.lookup[system.Id] = system
	s.order = append(s.order, system.Id)

	if err := s.updateSystemOrdering(); err != nil {
		delete(s.lookup, system.Id)
		s.order = s.order[:len(s.order)-1]
		return err
	}

	return nil
}

func (s *Schedule) updateSystemOrdering() error {
	var configs []SystemConfig
	for _, id := range s.order {
		configs = append(configs, s.lookup[id].SystemConfig)
	}

	// calculate ordering
	ordering, err := topologicalSystemOrder(configs)
	if err != nil {
		return err
	}

	// recreate list of ordered systems
	s.systems = s.systems[:0]

	for _, id := range ordering {
		system, ok := s.lookup[id]
		if !ok {
			continue
		}

		s.systems = append(s.systems, system)
	}

	return nil
}

// topologicalSystemOrder orders the systems by their constraints. Systems
// without constraints between them keep the order in which they were added.
func topologicalSystemOrder(systems []SystemConfig) ([]SystemId, error) {
	// graph and in-degree count for topological sorting
	graph := map[SystemId][]SystemId{}
	inDegree := map[SystemId]int{}

	// Ensure all nodes are in the graph
	var nodes set.Set[SystemId]
	for _, sys := range systems {
		nodes.Insert(sys.Id)
		nodes.InsertAll(sys.before.Values())
		nodes.InsertAll(sys.after.Values())
	}

	// build graph
	for _, sys := range systems {
		for before := range sys.before.Values() {
			graph[sys.Id] = append(graph[sys.Id], before)
			inDegree[before]++
		}

		for after := range sys.after.Values() {
			graph[after] = append(graph[after], sys.Id)
			inDegree[sys.Id]++
		}
	}

	// topological sort using Kahn's algorithm, seeded in insertion order
	var queue []SystemId
	for node := range nodes.Values() {
		if inDegree[node] == 0 {
			queue = append(queue, node)
		}
	}

	var result []SystemId
	for idx := 0; idx < len(queue); idx++ {
		curr := queue[idx]
		result = append(result, curr)

		for _, neighbor := range graph[curr] {
			inDegree[neighbor]--

			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
			}
		}
	}

	// check for cycles
	if len(result) != nodes.Len() {
		return nil, fmt.Errorf("cycle detected in %d systems", nodes.Len()-len(result))
	}

	return result, nil
}
