// Package schema validates facts against a flow's declared fact schema.
//
// A flow may declare the fields its conditions expect:
//
//	fact_schema:
//	  cart_value: number
//	  segment: string
//	  subscribed: bool
//	  coupon: ?string
//
// ParseTypeMap turns that declaration into a Schema, and Validate reports
// every field that is missing or holds a value of the wrong type:
//
//	s, err := schema.ParseTypeMap(flow.FactSchema)
//	if err != nil {
//	    return err
//	}
//	if err := schema.Validate(s, fact); err != nil {
//	    for _, e := range schema.ValidationErrors(err) {
//	        log.Println(e)
//	    }
//	}
//
// Types prefixed with "?" are optional: the field may be absent or null.
// Custom validators can be registered for domain-specific rules:
//
//	email := schema.Custom("email", func(v any) error {
//	    s, ok := v.(string)
//	    if !ok || !strings.Contains(s, "@") {
//	        return fmt.Errorf("expected an email address")
//	    }
//	    return nil
//	})
package schema
