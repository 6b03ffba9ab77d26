package cfg

import "github.com/gsctools/gscdis/internal/ast"

// devBlockBegin/devBlockEnd are the ExprStmt marker texts the walker's future
// dev-block opcode handlers would push to mark a paired /# ... #/
// developer-only region. No opcode in the minimum handler set currently
// emits them, so this pass is a no-op against bytecode produced by the
// registered handlers today; it is still run (and still gated by its own
// skip bit) so a VM profile that does register dev-block opcodes nests
// cleanly the moment it does, without needing a second reconstruction
// pipeline.
const (
	devBlockBegin = "<devblock-begin>"
	devBlockEnd   = "<devblock-end>"
)

func runDevBlocks(fn *ast.Func) bool {
	changed := false
	for {
		if !devBlocksOnePass(fn) {
			break
		}
		changed = true
	}
	return changed
}

func devBlocksOnePass(fn *ast.Func) bool {
	body := fn.Body
	arena := fn.Arena

	for i, r := range body {
		n := arena.Get(r)
		if n.Kind != ast.KindExprStmt || n.Text != devBlockBegin {
			continue
		}
		end := -1
		for j := i + 1; j < len(body); j++ {
			if arena.Get(body[j]).Text == devBlockEnd {
				end = j
				break
			}
		}
		if end < 0 {
			continue
		}
		inner := body[i+1 : end]
		blockRef := newBlock(arena, n.Location, inner)
		devNode := arena.New(ast.KindDevBlock, n.Location)
		arena.Get(devNode).Operands = []ast.Ref{blockRef}

		fn.Body = spliceReplace(body, i, end+1, devNode)
		return true
	}
	return false
}
