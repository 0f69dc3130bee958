package assemble

import (
	"fmt"

	"github.com/sarchlab/rhgforge/plan"
	"github.com/sarchlab/rhgforge/rhg"
)

// builder holds the per-assembly scratch state: the graph under
// construction, the three plan-stage inputs, and the two resolution
// tables that let later steps look a value up by either its owning
// plan symbol (a port, signal, or memory) or its lowering-plan
// expression-node id.
type builder struct {
	ctx *Context
	g   *rhg.Graph
	mp  *plan.ModulePlan
	lp  *plan.LoweringPlan
	wbp *plan.WriteBackPlan
	reg *InstanceRegistry

	symValues map[plan.SymbolId]rhg.ValueId
	values    []rhg.ValueId // indexed by plan.ExprNodeId
}

// declarePortsAndSignals materializes one Value (or, for a sequential/
// latch/memory target, one storage-declaration Operation plus its
// result Value) per port and per non-port signal, populating
// symValues and the graph's port lists before anything that might
// reference them by symbol is walked.
func (b *builder) declarePortsAndSignals() {
	domainOf := map[plan.SymbolId]plan.ControlDomain{}
	for _, e := range b.wbp.Entries {
		domainOf[e.Target] = e.Domain
	}

	for _, p := range b.mp.Ports {
		b.declarePort(p, domainOf)
	}
	for _, sig := range b.mp.Signals {
		if sig.Kind == plan.SignalPort {
			continue // already declared as a port above
		}
		b.declareSignal(sig, domainOf[sig.Symbol])
	}
}

func (b *builder) declarePort(p plan.PortInfo, domainOf map[plan.SymbolId]plan.ControlDomain) {
	gsym := b.g.Symbols().Intern(b.mp.SymbolTable.Text(p.Symbol))
	b.g.DeclareSymbol(gsym)

	if p.Inout != nil {
		inVal := b.g.NewValue(b.g.Symbols().Intern(b.mp.SymbolTable.Text(p.Inout.InSymbol)), p.Width, p.IsSigned, p.ValueType, nil)
		outVal := b.declareStorage(p.Inout.OutSymbol, plan.SignalVariable, p.Width, p.IsSigned, p.ValueType, 0, domainOf[p.Inout.OutSymbol])
		oeVal := b.declareStorage(p.Inout.OeSymbol, plan.SignalVariable, 1, false, rhg.Bit, 0, domainOf[p.Inout.OeSymbol])
		b.g.InoutPorts = append(b.g.InoutPorts, rhg.InoutPort{Name: gsym, In: inVal, Out: outVal, Oe: oeVal})
		b.symValues[p.Inout.InSymbol] = inVal
		b.symValues[p.Inout.OutSymbol] = outVal
		b.symValues[p.Inout.OeSymbol] = oeVal
		return
	}

	val := b.declareStorage(p.Symbol, plan.SignalVariable, p.Width, p.IsSigned, p.ValueType, 0, domainOf[p.Symbol])
	b.symValues[p.Symbol] = val
	port := rhg.Port{Name: gsym, Value: val, Direction: p.Direction}
	switch p.Direction {
	case rhg.DirInput:
		b.g.InputPorts = append(b.g.InputPorts, port)
	case rhg.DirOutput:
		b.g.OutputPorts = append(b.g.OutputPorts, port)
	}
}

func (b *builder) declareSignal(sig plan.SignalInfo, domain plan.ControlDomain) {
	b.g.DeclareSymbol(b.g.Symbols().Intern(b.mp.SymbolTable.Text(sig.Symbol)))
	b.symValues[sig.Symbol] = b.declareStorage(sig.Symbol, sig.Kind, sig.Width, sig.IsSigned, sig.ValueType, sig.MemoryRows, domain)
}

// declareStorage emits the storage declaration appropriate to kind
// and domain: a memory always becomes kMemory regardless of domain (a
// memory is never itself a write-back target, its ports are), a
// target the resolver classified Sequential/Latch becomes kRegister/
// kLatch, and anything else is a plain wire value with no defining
// operation yet.
func (b *builder) declareStorage(sym plan.SymbolId, kind plan.SignalKind, width int, isSigned bool, vt rhg.ValueType, memRows int64, domain plan.ControlDomain) rhg.ValueId {
	gsym := b.g.Symbols().Intern(b.mp.SymbolTable.Text(sym))
	switch {
	case kind == plan.SignalMemory:
		op := b.g.NewOperation(gsym, rhg.KMemory, nil)
		o := b.g.GetOperation(op)
		o.SetAttr("width", int64(width))
		o.SetAttr("isSigned", isSigned)
		o.SetAttr("depth", memRows)
		return b.g.NewResultValue(op, gsym, width, isSigned, vt, nil)
	case domain == plan.Sequential:
		op := b.g.NewOperation(gsym, rhg.KRegister, nil)
		o := b.g.GetOperation(op)
		o.SetAttr("width", int64(width))
		o.SetAttr("isSigned", isSigned)
		return b.g.NewResultValue(op, gsym, width, isSigned, vt, nil)
	case domain == plan.Latch:
		op := b.g.NewOperation(gsym, rhg.KLatch, nil)
		o := b.g.GetOperation(op)
		o.SetAttr("width", int64(width))
		o.SetAttr("isSigned", isSigned)
		return b.g.NewResultValue(op, gsym, width, isSigned, vt, nil)
	default:
		return b.g.NewValue(gsym, width, isSigned, vt, nil)
	}
}

// materializeExprValues walks lp.Values in allocation order, which is
// already a topological order (the lowerer and the write-back
// resolver both allocate a node's operands before the node itself),
// and assembles one rhg operation+value per entry (the write-back
// 3). A symbol reference resolves against symValues unless it is the
// synthetic data symbol a memory read port's lowering produced, in
// which case the kMemoryReadPort op is emitted lazily right here.
func (b *builder) materializeExprValues() {
	readBySymbol := map[plan.SymbolId]int{}
	for i, mr := range b.lp.MemoryReads {
		readBySymbol[b.lp.Values[mr.Data].Symbol] = i
	}

	for i := range b.lp.Values {
		node := &b.lp.Values[i]
		var v rhg.ValueId
		switch node.Kind {
		case plan.ExprConstant:
			v = b.materializeConstant(node)
		case plan.ExprSymbolRef:
			if idx, ok := readBySymbol[node.Symbol]; ok {
				v = b.materializeMemoryRead(idx, node)
			} else if sv, ok := b.symValues[node.Symbol]; ok {
				v = sv
			} else {
				b.ctx.Diagnostics.Todo(
					fmt.Sprintf("unresolved symbol reference %q", b.mp.SymbolTable.Text(node.Symbol)), "assemble")
				v = b.g.NewValue(0, node.WidthHint, node.IsSigned, node.ValueType, nil)
			}
		case plan.ExprXmrRead:
			v = b.materializeXmrRead(node)
		case plan.ExprOpNode:
			v = b.materializeOp(node)
		default:
			b.ctx.Diagnostics.Todo("expression node with no kind reached the assembler", "assemble")
			v = b.g.NewValue(0, node.WidthHint, node.IsSigned, node.ValueType, nil)
		}
		b.values[i] = v
	}
}

func (b *builder) materializeConstant(node *plan.ExprNode) rhg.ValueId {
	op := b.g.NewOperation(0, rhg.KConstant, nil)
	b.g.GetOperation(op).SetAttr("value", node.Literal)
	return b.g.NewResultValue(op, 0, node.WidthHint, node.IsSigned, node.ValueType, nil)
}

func (b *builder) materializeXmrRead(node *plan.ExprNode) rhg.ValueId {
	op := b.g.NewOperation(0, rhg.KXmrRead, nil)
	b.g.GetOperation(op).SetAttr("path", node.XmrPath)
	return b.g.NewResultValue(op, 0, node.WidthHint, node.IsSigned, node.ValueType, nil)
}

func (b *builder) materializeOp(node *plan.ExprNode) rhg.ValueId {
	op := b.g.NewOperation(0, node.Op, nil)
	for _, operand := range node.Operands {
		b.g.AddOperand(op, b.values[operand])
	}
	o := b.g.GetOperation(op)
	switch node.Op {
	case rhg.KMemberSelect:
		o.SetAttr("field", node.Literal)
	case rhg.KSystemTask, rhg.KDpiCall:
		o.SetAttr("name", node.SystemName)
	}
	if node.HasSideEffects {
		o.SetAttr("hasSideEffects", true)
	}
	return b.g.NewResultValue(op, 0, node.WidthHint, node.IsSigned, node.ValueType, nil)
}

func (b *builder) materializeMemoryRead(idx int, dataNode *plan.ExprNode) rhg.ValueId {
	mr := b.lp.MemoryReads[idx]
	memVal, ok := b.symValues[mr.Memory]
	if !ok {
		b.ctx.Diagnostics.Error(
			fmt.Sprintf("memory read references undeclared memory %q", b.mp.SymbolTable.Text(mr.Memory)), "assemble")
		return b.g.NewValue(0, dataNode.WidthHint, dataNode.IsSigned, dataNode.ValueType, nil)
	}

	gsym := b.g.Symbols().Intern(b.mp.SymbolTable.Text(dataNode.Symbol))
	op := b.g.NewOperation(gsym, rhg.KMemoryReadPort, nil)
	b.g.AddOperand(op, memVal)
	b.g.AddOperand(op, b.values[mr.Address])
	if mr.UpdateCond.Valid() {
		b.g.AddOperand(op, b.values[mr.UpdateCond])
	}
	for _, ev := range mr.EventOperands {
		b.g.AddOperand(op, b.values[ev])
	}
	o := b.g.GetOperation(op)
	o.SetAttr("isSync", mr.IsSync)
	if len(mr.EventEdges) > 0 {
		o.SetAttr("eventEdge", eventEdgeNames(mr.EventEdges))
	}
	return b.g.NewResultValue(op, gsym, dataNode.WidthHint, dataNode.IsSigned, dataNode.ValueType, nil)
}

// materializeWriteBack emits one kRegisterWritePort/kLatchWritePort/
// kAssign per resolved write-back entry. A
// combinational target's storage value, still undefined from
// declarePortsAndSignals, becomes the kAssign's result; a sequential
// or latch target's storage value was already produced by its
// kRegister/kLatch declaration, so the write port only reads it as an
// operand.
func (b *builder) materializeWriteBack() {
	for _, e := range b.wbp.Entries {
		storageVal, ok := b.symValues[e.Target]
		if !ok {
			b.ctx.Diagnostics.Error(
				fmt.Sprintf("write-back target %q was never declared", b.mp.SymbolTable.Text(e.Target)), "assemble")
			continue
		}
		nextVal := b.values[e.NextValue]
		gsym := b.g.Symbols().Intern(b.mp.SymbolTable.Text(e.Target))

		switch e.Domain {
		case plan.Sequential, plan.Latch:
			kind, attrKey := rhg.KRegisterWritePort, "regSymbol"
			if e.Domain == plan.Latch {
				kind, attrKey = rhg.KLatchWritePort, "latchSymbol"
			}
			op := b.g.NewOperation(gsym, kind, nil)
			b.g.AddOperand(op, storageVal)
			b.g.AddOperand(op, nextVal)
			if e.UpdateCond.Valid() {
				b.g.AddOperand(op, b.values[e.UpdateCond])
			}
			for _, ev := range e.EventOperands {
				b.g.AddOperand(op, b.values[ev])
			}
			o := b.g.GetOperation(op)
			o.SetAttr(attrKey, b.mp.SymbolTable.Text(e.Target))
			if len(e.EventEdges) > 0 {
				o.SetAttr("eventEdge", eventEdgeNames(e.EventEdges))
			}
			b.attachSlice(o, e)

		default: // Combinational
			op := b.g.NewOperation(gsym, rhg.KAssign, nil)
			b.g.AddOperand(op, nextVal)
			if e.UpdateCond.Valid() {
				b.g.AddOperand(op, b.values[e.UpdateCond])
			}
			b.g.AddResult(op, storageVal)
			b.attachSlice(b.g.GetOperation(op), e)
		}
	}
}

func (b *builder) attachSlice(o *rhg.Operation, e plan.WriteBackEntry) {
	if !e.HasStaticSlice {
		return
	}
	o.SetAttr("sliceLow", e.SliceLow)
	o.SetAttr("sliceWidth", e.SliceWidth)
}

// materializeMemoryWritePorts emits one kMemoryWritePort per lowered
// memory write.
func (b *builder) materializeMemoryWritePorts() {
	for _, mw := range b.lp.MemoryWrites {
		memVal, ok := b.symValues[mw.Memory]
		if !ok {
			b.ctx.Diagnostics.Error(
				fmt.Sprintf("memory write references undeclared memory %q", b.mp.SymbolTable.Text(mw.Memory)), "assemble")
			continue
		}
		gsym := b.g.Symbols().Intern(b.mp.SymbolTable.Text(mw.Memory))
		op := b.g.NewOperation(gsym, rhg.KMemoryWritePort, nil)
		b.g.AddOperand(op, memVal)
		b.g.AddOperand(op, b.values[mw.Address])
		b.g.AddOperand(op, b.values[mw.Data])
		if mw.IsMasked && mw.Mask.Valid() {
			b.g.AddOperand(op, b.values[mw.Mask])
		}
		if mw.UpdateCond.Valid() {
			b.g.AddOperand(op, b.values[mw.UpdateCond])
		}
		for _, ev := range mw.EventOperands {
			b.g.AddOperand(op, b.values[ev])
		}
		o := b.g.GetOperation(op)
		o.SetAttr("isMasked", mw.IsMasked)
		if len(mw.EventEdges) > 0 {
			o.SetAttr("eventEdge", eventEdgeNames(mw.EventEdges))
		}
	}
}

// materializeMemoryInits folds every $readmemh/$readmemb/literal
// initializer targeting a memory onto that memory's kMemory
// declaration as parallel attribute arrays: the OperationKind
// enumeration has no dedicated "init" kind, and an init record is
// inherently a property of the storage, not a new data-flow node.
func (b *builder) materializeMemoryInits() {
	for _, mi := range b.lp.MemoryInits {
		val, ok := b.symValues[mi.Memory]
		if !ok {
			continue
		}
		op := b.g.GetOperation(b.g.GetValue(val).DefiningOp)
		kinds, _ := op.AttrStrings("initKind")
		files, _ := op.AttrStrings("initFile")
		values, _ := op.AttrStrings("initValue")
		op.SetAttr("initKind", append(kinds, mi.Kind))
		op.SetAttr("initFile", append(files, mi.File))
		op.SetAttr("initValue", append(values, mi.InitValue))
	}
}

// materializeRegisterInits attaches each register's initial-value
// text (including a verbatim "$random(...)" call) onto its
// kRegister declaration.
func (b *builder) materializeRegisterInits() {
	for _, ri := range b.lp.RegisterInits {
		val, ok := b.symValues[ri.Register]
		if !ok {
			continue
		}
		defOp := b.g.GetValue(val).DefiningOp
		if !defOp.Valid() {
			continue
		}
		b.g.GetOperation(defOp).SetAttr("initValue", ri.InitValue)
	}
}

// materializeInstances emits one kInstance/kBlackbox op per child
// instance recorded by the planner. The
// front-end contract (hdlast.Body) carries no actual-to-formal port
// connection data, so each child port is wired to the parent-scope
// value of the same name; a port with no same-named parent signal
// gets a floating placeholder value and a warning, rather than
// failing the whole assembly.
func (b *builder) materializeInstances() {
	for _, inst := range b.mp.Instances {
		b.materializeInstance(inst)
	}
}

func (b *builder) materializeInstance(inst plan.InstanceInfo) {
	instanceName := b.mp.SymbolTable.Text(inst.InstanceSymbol)
	moduleName := b.mp.SymbolTable.Text(inst.ModuleSymbol)
	childPorts := inst.Instance.Body().Ports()

	kind := rhg.KInstance
	if inst.IsBlackbox {
		kind = rhg.KBlackbox
	}
	gsym := b.g.Symbols().Intern(instanceName)
	op := b.g.NewOperation(gsym, kind, nil)

	var inputNames, outputNames, inoutNames []string
	for _, p := range childPorts {
		switch p.Direction {
		case rhg.DirInput:
			inputNames = append(inputNames, p.Name)
			b.g.AddOperand(op, b.parentSidePinValue(instanceName, p.Name, p.Width, p.IsSigned, p.Type))
		case rhg.DirOutput:
			outputNames = append(outputNames, p.Name)
			resSym := b.g.Symbols().Intern(instanceName + "." + p.Name)
			b.g.NewResultValue(op, resSym, p.Width, p.IsSigned, p.Type, nil)
		case rhg.DirInout:
			inoutNames = append(inoutNames, p.Name)
			b.g.AddOperand(op, b.parentSidePinValue(instanceName, p.Name, p.Width, p.IsSigned, p.Type))
			oeSym := b.g.Symbols().Intern(instanceName + "." + p.Name + "$oe")
			b.g.AddOperand(op, b.g.NewValue(oeSym, 1, false, rhg.Bit, nil))
			resSym := b.g.Symbols().Intern(instanceName + "." + p.Name + "$out")
			b.g.NewResultValue(op, resSym, p.Width, p.IsSigned, p.Type, nil)
		}
	}

	paramNames := make([]string, len(inst.Parameters))
	paramValues := make([]string, len(inst.Parameters))
	for i, pr := range inst.Parameters {
		paramNames[i] = b.mp.SymbolTable.Text(pr.Symbol)
		paramValues[i] = pr.Value
	}

	o := b.g.GetOperation(op)
	o.SetAttr("moduleName", moduleName)
	o.SetAttr("instanceName", instanceName)
	o.SetAttr("inputPortName", inputNames)
	o.SetAttr("outputPortName", outputNames)
	o.SetAttr("inoutPortName", inoutNames)
	o.SetAttr("parameterNames", paramNames)
	o.SetAttr("parameterValues", paramValues)

	if !inst.IsBlackbox {
		key := plan.Key{DefinitionIdentity: inst.Instance.Definition().Identity(), ParamSignature: inst.ParamSignature}
		if childName, ok := b.reg.Lookup(key); ok {
			o.SetAttr("calleeGraph", childName)
		} else {
			b.ctx.Diagnostics.Warning(
				fmt.Sprintf("instance %q references module %q whose graph has not been published yet", instanceName, moduleName), "assemble")
		}
	}
}

// parentSidePinValue resolves a child port's driving value via the
// same-name convention: a parent-scope signal or port sharing the
// child port's textual name. When none exists, a floating placeholder
// is allocated instead of failing the assembly outright.
func (b *builder) parentSidePinValue(instanceName, portName string, width int, isSigned bool, vt rhg.ValueType) rhg.ValueId {
	if sym, ok := b.mp.SymbolTable.Lookup(portName); ok {
		if v, ok := b.symValues[sym]; ok {
			return v
		}
	}
	b.ctx.Diagnostics.Warning(
		fmt.Sprintf("instance %q port %q has no same-named parent signal to bind to", instanceName, portName), "assemble")
	return b.placeholderValue(width, isSigned, vt)
}

func (b *builder) placeholderValue(width int, isSigned bool, vt rhg.ValueType) rhg.ValueId {
	return b.g.NewValue(0, width, isSigned, vt, nil)
}

func eventEdgeNames(edges []plan.EventEdge) []string {
	out := make([]string, len(edges))
	for i, e := range edges {
		if e == plan.Negedge {
			out[i] = "negedge"
		} else {
			out[i] = "posedge"
		}
	}
	return out
}
