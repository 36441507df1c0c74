package dupsteps

// FirstDefinition is the first definition of the duplicated step.
// @tursu given `I have {n:int} items`
func FirstDefinition(n int) {}

// SecondDefinition repeats the same pattern under the same keyword.
// @tursu given `I have {n:int} items`
func SecondDefinition(n int) {}
