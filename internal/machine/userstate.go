package machine

// NumRegs is the size of the simulated user register file.
const NumRegs = 8

// UserState is the user-mode context of a task: a register file that is
// copied out on every switch away and copied back on resume.
type UserState struct {
	Regs  [NumRegs]int64
	saved [NumRegs]int64

	Saves    int
	Restores int
}

// SaveState stores the registers of the outgoing task.
func (u *UserState) SaveState() {
	u.saved = u.Regs
	u.Saves++
}

// RestoreState reloads the registers saved last.
func (u *UserState) RestoreState() {
	u.Regs = u.saved
	u.Restores++
}
