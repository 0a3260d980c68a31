package embedding

// Operation names reported in errors and logs.
const (
	OpEmbedDocuments      = "EmbedDocuments"
	OpEmbedDocumentsAsync = "EmbedDocumentsAsync"
)

// Resolve constructs the provider registered as module/typ with opts.
// Failures are checked in order: missing identifiers, unknown module,
// unknown type, missing factory, factory error, nil instance.
func (r *Registry) Resolve(module, typ string, opts Options) (DocumentEmbedder, error) {
	return r.resolve(OpEmbedDocuments, module, typ, opts)
}

func (r *Registry) resolve(op, module, typ string, opts Options) (DocumentEmbedder, error) {
	if module == "" || typ == "" {
		return nil, &Error{Kind: ErrInvalidArgument, Op: op, Module: module, Type: typ}
	}

	r.mu.RLock()
	types, ok := r.modules[module]
	var t Type
	var found bool
	if ok {
		t, found = types[typ]
	}
	r.mu.RUnlock()

	if !ok {
		return nil, &Error{Kind: ErrModuleNotFound, Op: op, Module: module, Type: typ}
	}
	if !found {
		return nil, &Error{Kind: ErrTypeNotFound, Op: op, Module: module, Type: typ}
	}
	if t.New == nil {
		return nil, &Error{Kind: ErrNotConstructible, Op: op, Module: module, Type: typ}
	}

	inst, err := construct(t.New, opts)
	if err != nil {
		return nil, &Error{Kind: ErrConstructionFailed, Op: op, Module: module, Type: typ, Err: err}
	}
	if inst == nil {
		return nil, &Error{Kind: ErrCapabilityMissing, Op: op, Module: module, Type: typ}
	}
	return inst, nil
}

func construct(f Factory, opts Options) (inst DocumentEmbedder, err error) {
	defer recoverAsError(&err)
	return f(opts)
}
