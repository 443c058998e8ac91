package rpccommon

import (
	"github.com/soundbytelabs/sbl-debugger-mcp/service/api"
)

func (s *RPCServer) Attach(in api.AttachIn, out *api.AttachOut) error {
	o, err := s.d.Attach(in)
	if err != nil {
		return err
	}
	*out = *o
	return nil
}

func (s *RPCServer) Detach(in api.DetachIn, out *api.DetachOut) error {
	o, err := s.d.Detach(in)
	if err != nil {
		return err
	}
	*out = *o
	return nil
}

func (s *RPCServer) Sessions(in api.SessionsIn, out *api.SessionsOut) error {
	o, err := s.d.Sessions(in)
	if err != nil {
		return err
	}
	*out = *o
	return nil
}

func (s *RPCServer) Targets(in api.TargetsIn, out *api.TargetsOut) error {
	o, err := s.d.Targets(in)
	if err != nil {
		return err
	}
	*out = *o
	return nil
}

func (s *RPCServer) Status(in api.StatusIn, out *api.StatusOut) error {
	o, err := s.d.Status(in)
	if err != nil {
		return err
	}
	*out = *o
	return nil
}

func (s *RPCServer) Halt(in api.HaltIn, out *api.HaltOut) error {
	o, err := s.d.Halt(in)
	if err != nil {
		return err
	}
	*out = *o
	return nil
}

func (s *RPCServer) Continue(in api.ContinueIn, out *api.ContinueOut) error {
	o, err := s.d.Continue(in)
	if err != nil {
		return err
	}
	*out = *o
	return nil
}

func (s *RPCServer) WaitForHalt(in api.WaitForHaltIn, out *api.WaitForHaltOut) error {
	o, err := s.d.WaitForHalt(in)
	if err != nil {
		return err
	}
	*out = *o
	return nil
}

func (s *RPCServer) Step(in api.StepIn, out *api.StepOut) error {
	o, err := s.d.Step(in)
	if err != nil {
		return err
	}
	*out = *o
	return nil
}

func (s *RPCServer) StepOver(in api.StepIn, out *api.StepOut) error {
	o, err := s.d.StepOver(in)
	if err != nil {
		return err
	}
	*out = *o
	return nil
}

func (s *RPCServer) StepOut(in api.StepIn, out *api.StepOut) error {
	o, err := s.d.StepOut(in)
	if err != nil {
		return err
	}
	*out = *o
	return nil
}

func (s *RPCServer) StepInstruction(in api.StepIn, out *api.StepOut) error {
	o, err := s.d.StepInstruction(in)
	if err != nil {
		return err
	}
	*out = *o
	return nil
}

func (s *RPCServer) RunTo(in api.RunToIn, out *api.RunToOut) error {
	o, err := s.d.RunTo(in)
	if err != nil {
		return err
	}
	*out = *o
	return nil
}

func (s *RPCServer) Reset(in api.ResetIn, out *api.ResetOut) error {
	o, err := s.d.Reset(in)
	if err != nil {
		return err
	}
	*out = *o
	return nil
}

func (s *RPCServer) ReadRegisters(in api.ReadRegistersIn, out *api.ReadRegistersOut) error {
	o, err := s.d.ReadRegisters(in)
	if err != nil {
		return err
	}
	*out = *o
	return nil
}

func (s *RPCServer) WriteRegister(in api.WriteRegisterIn, out *api.WriteRegisterOut) error {
	o, err := s.d.WriteRegister(in)
	if err != nil {
		return err
	}
	*out = *o
	return nil
}

func (s *RPCServer) ReadMemory(in api.ReadMemoryIn, out *api.ReadMemoryOut) error {
	o, err := s.d.ReadMemory(in)
	if err != nil {
		return err
	}
	*out = *o
	return nil
}

func (s *RPCServer) WriteMemory(in api.WriteMemoryIn, out *api.WriteMemoryOut) error {
	o, err := s.d.WriteMemory(in)
	if err != nil {
		return err
	}
	*out = *o
	return nil
}

func (s *RPCServer) Backtrace(in api.BacktraceIn, out *api.BacktraceOut) error {
	o, err := s.d.Backtrace(in)
	if err != nil {
		return err
	}
	*out = *o
	return nil
}

func (s *RPCServer) Locals(in api.LocalsIn, out *api.LocalsOut) error {
	o, err := s.d.Locals(in)
	if err != nil {
		return err
	}
	*out = *o
	return nil
}

func (s *RPCServer) Eval(in api.EvalIn, out *api.EvalOut) error {
	o, err := s.d.Eval(in)
	if err != nil {
		return err
	}
	*out = *o
	return nil
}

func (s *RPCServer) Disassemble(in api.DisassembleIn, out *api.DisassembleOut) error {
	o, err := s.d.Disassemble(in)
	if err != nil {
		return err
	}
	*out = *o
	return nil
}

func (s *RPCServer) BreakpointSet(in api.BreakpointSetIn, out *api.BreakpointSetOut) error {
	o, err := s.d.BreakpointSet(in)
	if err != nil {
		return err
	}
	*out = *o
	return nil
}

func (s *RPCServer) BreakpointDelete(in api.BreakpointDeleteIn, out *api.BreakpointDeleteOut) error {
	o, err := s.d.BreakpointDelete(in)
	if err != nil {
		return err
	}
	*out = *o
	return nil
}

func (s *RPCServer) BreakpointList(in api.BreakpointListIn, out *api.BreakpointListOut) error {
	o, err := s.d.BreakpointList(in)
	if err != nil {
		return err
	}
	*out = *o
	return nil
}

func (s *RPCServer) WatchpointSet(in api.WatchpointSetIn, out *api.WatchpointSetOut) error {
	o, err := s.d.WatchpointSet(in)
	if err != nil {
		return err
	}
	*out = *o
	return nil
}

func (s *RPCServer) Snapshot(in api.SnapshotIn, out *api.SnapshotOut) error {
	o, err := s.d.Snapshot(in)
	if err != nil {
		return err
	}
	*out = *o
	return nil
}

func (s *RPCServer) Flash(in api.FlashIn, out *api.FlashOut) error {
	o, err := s.d.Flash(in)
	if err != nil {
		return err
	}
	*out = *o
	return nil
}

func (s *RPCServer) Monitor(in api.MonitorIn, out *api.MonitorOut) error {
	o, err := s.d.Monitor(in)
	if err != nil {
		return err
	}
	*out = *o
	return nil
}

func (s *RPCServer) ListPeripherals(in api.ListPeripheralsIn, out *api.ListPeripheralsOut) error {
	o, err := s.d.ListPeripherals(in)
	if err != nil {
		return err
	}
	*out = *o
	return nil
}

func (s *RPCServer) ListRegisters(in api.ListRegistersIn, out *api.ListRegistersOut) error {
	o, err := s.d.ListRegisters(in)
	if err != nil {
		return err
	}
	*out = *o
	return nil
}

func (s *RPCServer) ReadPeripheralRegister(in api.ReadPeripheralRegisterIn, out *api.ReadPeripheralRegisterOut) error {
	o, err := s.d.ReadPeripheralRegister(in)
	if err != nil {
		return err
	}
	*out = *o
	return nil
}

func (s *RPCServer) ReadPeripheral(in api.ReadPeripheralIn, out *api.ReadPeripheralOut) error {
	o, err := s.d.ReadPeripheral(in)
	if err != nil {
		return err
	}
	*out = *o
	return nil
}
