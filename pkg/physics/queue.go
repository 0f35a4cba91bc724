package physics

type commandKind uint8

const (
	commandCreate commandKind = iota
	commandDestroy
)

type command struct {
	kind commandKind
	body *RigidBody
}

// commandQueue holds body mutations requested while the world is locked.
// Commands are applied in the order they were queued.
type commandQueue struct {
	commands []command
}

func (q *commandQueue) push(kind commandKind, body *RigidBody) {
	q.commands = append(q.commands, command{kind: kind, body: body})
}

func (q *commandQueue) len() int { return len(q.commands) }

func (q *commandQueue) clear() {
	clear(q.commands)
	q.commands = q.commands[:0]
}

// drain hands every queued command to fn. Commands queued by fn itself are
// drained in the same pass.
func (q *commandQueue) drain(fn func(command)) {
	for i := 0; i < len(q.commands); i++ {
		fn(q.commands[i])
	}
	q.clear()
}
