// Package audithook is a simulator extension that turns lifecycle events
// into an audit trail.
//
// Every hook (job submitted, assigned, completed or rejected, worker lost,
// shutdown) emits a structured [AuditEvent] through the [Recorder]
// interface. Normal operations are recorded at info severity, rejections
// as warnings and lost workers as critical.
//
// # Writing JSON lines
//
//	f, _ := os.Create("audit.jsonl")
//	eng, _ := engine.New(cfg,
//	    engine.WithExtension(audithook.New(audithook.NewJSONRecorder(f))),
//	)
//
// # Selective filtering
//
//	audithook.New(recorder,
//	    audithook.WithActions(
//	        audithook.ActionJobRejected,
//	        audithook.ActionWorkerLost,
//	    ),
//	)
package audithook
