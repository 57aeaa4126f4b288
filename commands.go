package byke

import (
	"reflect"
)

type Command func(world *World)

type EntityCommand func(world *World, entityId EntityId)

// Commands is a SystemParam that allows you to send commands to a world.
// It allows you to spawn and despawn entities and to add and remove components.
// Commands are applied after the system has finished.
// It must be injected as a pointer into a system.
type Commands struct {
	world *World
	queue []Command
}

func (c *Commands) applyToWorld() {
	// a command may enqueue further commands
	for len(c.queue) > 0 {
		command := c.queue[0]
		c.queue = c.queue[1:]

		command(c.world)
	}

	// reset the queue after applying it
	c.queue = nil
}

func (*Commands) init(world *World) SystemParamState {
	return (*commandSystemParamState)(
		&Commands{world: world},
	)
}

func (c *Commands) Queue(command Command) *Commands {
	c.queue = append(c.queue, command)
	return c
}

// Spawn enqueues spawning a new entity. The id of the entity is
// reserved immediately.
func (c *Commands) Spawn(components ...ErasedComponent) EntityCommands {
	entityId := c.world.reserveEntityId()

	c.Queue(func(world *World) {
		world.spawnWithEntityId(entityId, components)
	})

	return EntityCommands{
		entityId: entityId,
		commands: c,
	}
}

func (c *Commands) Entity(entityId EntityId) EntityCommands {
	return EntityCommands{
		entityId: entityId,
		commands: c,
	}
}

type EntityCommands struct {
	entityId EntityId
	commands *Commands
}

func (e EntityCommands) Id() EntityId {
	return e.entityId
}

func (e EntityCommands) Update(commands ...EntityCommand) EntityCommands {
	e.commands.Queue(func(world *World) {
		for _, command := range commands {
			command(world, e.entityId)
		}
	})

	return e
}

// Insert enqueues inserting the given components into the entity.
func (e EntityCommands) Insert(components ...ErasedComponent) EntityCommands {
	return e.Update(InsertComponents(components...))
}

func (e EntityCommands) Despawn() {
	e.commands.Queue(func(world *World) {
		world.Despawn(e.entityId)
	})
}

func RemoveComponent[C IsComponent[C]]() EntityCommand {
	componentType := ComponentTypeOf[C]()

	return func(world *World, entityId EntityId) {
		world.RemoveComponent(entityId, componentType)
	}
}

func InsertComponent[C IsComponent[C]](maybeValue ...C) EntityCommand {
	if len(maybeValue) > 1 {
		panic("InsertComponent must be called with at most one argument")
	}

	var component C
	if len(maybeValue) == 1 {
		component = maybeValue[0]
	}

	return InsertComponents(component)
}

// InsertComponents inserts type erased component values.
func InsertComponents(components ...ErasedComponent) EntityCommand {
	return func(world *World, entityId EntityId) {
		world.InsertComponents(entityId, components)
	}
}

type commandSystemParamState Commands

func (c *commandSystemParamState) getValue() reflect.Value {
	return reflect.ValueOf((*Commands)(c))
}

func (c *commandSystemParamState) cleanupValue() {
	(*Commands)(c).applyToWorld()
}

func (*commandSystemParamState) valueType() reflect.Type {
	return reflect.TypeFor[*Commands]()
}
