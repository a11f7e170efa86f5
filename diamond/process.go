package diamond

// Process validates batch against t and returns the table that results from
// applying it. t is never modified; on error the returned table is nil.
//
// Validation runs in two passes over the whole batch before anything is
// applied. The first pass checks the batch on its own (actions, facet
// references, empty selector lists, selectors repeated anywhere in the
// batch), the second checks every selector against the routing state of t.
func Process(t *Table, batch Batch) (*Table, error) {
	if len(batch.Cuts) == 0 && batch.Init == nil {
		return nil, &CutError{Kind: KindEmptyBatch, Op: -1}
	}

	if err := checkShape(batch); err != nil {
		return nil, err
	}
	if err := checkRoutes(t, batch); err != nil {
		return nil, err
	}

	next := t.clone()
	for _, cut := range batch.Cuts {
		for _, s := range cut.Selectors {
			switch cut.Action {
			case Add:
				next.add(s, cut.Facet)
			case Replace:
				next.replace(s, cut.Facet)
			case Remove:
				next.remove(s)
			}
		}
	}
	return next, nil
}

func checkShape(batch Batch) error {
	seen := make(map[Selector]struct{}, batch.selectorCount())

	for i, cut := range batch.Cuts {
		switch cut.Action {
		case Add, Replace:
			if cut.Facet.IsZero() {
				return &CutError{Kind: KindNullModule, Op: i}
			}
		case Remove:
			if !cut.Facet.IsZero() {
				return &CutError{Kind: KindRemoveFacetNotNull, Op: i, Facet: cut.Facet}
			}
		default:
			return &CutError{Kind: KindInvalidAction, Op: i, Facet: cut.Facet}
		}

		if len(cut.Selectors) == 0 {
			return &CutError{Kind: KindNoSelectors, Op: i, Facet: cut.Facet}
		}

		for _, s := range cut.Selectors {
			if _, dup := seen[s]; dup {
				return selectorErr(KindDuplicateSelectorInBatch, i, s, cut.Facet)
			}
			seen[s] = struct{}{}
		}
	}

	if batch.Init != nil && batch.Init.Target.IsZero() {
		return &CutError{Kind: KindNullModule, Op: -1}
	}
	return nil
}

func checkRoutes(t *Table, batch Batch) error {
	for i, cut := range batch.Cuts {
		for _, s := range cut.Selectors {
			cur, routed := t.Resolve(s)
			switch cut.Action {
			case Add:
				if routed {
					return selectorErr(KindSelectorAlreadyExists, i, s, cur)
				}
			case Replace, Remove:
				if !routed {
					return selectorErr(KindSelectorNotFound, i, s, cut.Facet)
				}
			}
		}
	}
	return nil
}
