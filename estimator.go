package guml

// Transformer is the contract shared by every estimator in the package:
// Fit learns parameters from a device matrix, Transform applies them, and
// FitTransform fuses the two when the fitted output for the training data
// is all the caller wants. Calling Transform before Fit returns a
// NotFitted error.
type Transformer interface {
	Fit(x *Matrix) error
	Transform(x *Matrix) (*Matrix, error)
	FitTransform(x *Matrix) (*Matrix, error)
}
